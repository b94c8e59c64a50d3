// Package handler provides type-safe JSON HTTP handlers.
//
// A handler is a generic function that receives a Context and a bound
// request struct and returns a Response:
//
//	type LoginRequest struct {
//		Email    string `json:"email"`
//		Password string `json:"password"`
//	}
//
//	func login(ctx handler.Context, req LoginRequest) handler.Response {
//		res, err := svc.Login(ctx, req.Email, req.Password)
//		if err != nil {
//			return handler.JSONError(mapError(err))
//		}
//		return handler.JSON(res)
//	}
//
//	r.Post("/auth/login", handler.Wrap(login,
//		handler.WithBinders[handler.Context, LoginRequest](binder.JSON()),
//		handler.WithErrorHandler[handler.Context, LoginRequest](errorHandler),
//	))
//
// Every body uses the same envelope: {"status":"success","data":...} or
// {"status":"error","error":{"code":...,"message":...}}. Binding failures
// become 400 bad_request, validator.ValidationErrors become 400
// validation_error with per-field details, HTTPError values keep their code,
// and any other error is reported as a generic 500 so internal causes never
// leak to clients.
package handler
