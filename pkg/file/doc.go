// Package file issues presigned S3 upload URLs for user files such as
// avatars, and checks that uploaded objects exist.
//
//	p, err := file.NewS3Presigner(ctx, cfg)
//	up, err := p.PresignUpload(ctx, file.AvatarKey(userID, "me.png"), "image/png", size)
//	// client: PUT up.URL with up.Headers, then save up.PublicURL
//
// S3 failures are mapped to sentinels such as ErrAccessDenied and
// ErrBucketNotFound through smithy.APIError codes.
package file
