// Package server exposes the extraction pipeline over HTTP.
//
// It implements a small upload API:
//
//	POST   /api/upload                        multipart PDF in, JSON results out
//	GET    /api/sign-image/{session}/{file}   serve an exported crop
//	GET    /api/results/{session}             replay a session's results
//	DELETE /api/session/{session}             delete a session's data
//	GET    /api/health                        service and dependency status
//
// Every upload runs inside its own session directory named by a freshly
// generated UUID; the session id comes back in the upload response and
// keys subsequent crop-image requests. Uploads are capped at 50 MB and
// restricted to the .pdf extension. All error responses are JSON objects
// with a single "error" field.
package server
