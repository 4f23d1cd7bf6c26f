// Package authenticator is the boundary to the device's local biometric check.
// Only boolean outcomes cross it; biometric data never does.
package authenticator

import "context"

// Result is the outcome of one authentication prompt.
type Result struct {
	Success bool `json:"success"`
}

// Authenticator reports biometric capability and runs a prompt.
type Authenticator interface {
	HasCapability(ctx context.Context) (bool, error)
	IsEnrolled(ctx context.Context) (bool, error)
	Authenticate(ctx context.Context, prompt string) (Result, error)
}

// Static returns fixed answers. The API uses it for outcomes asserted by the
// student's device in the request body.
type Static struct {
	Hardware bool
	Enrolled bool
	Success  bool
}

// Approve is a device with enrolled biometrics that always succeeds.
func Approve() Static { return Static{Hardware: true, Enrolled: true, Success: true} }

func (s Static) HasCapability(context.Context) (bool, error) { return s.Hardware, nil }

func (s Static) IsEnrolled(context.Context) (bool, error) { return s.Enrolled, nil }

func (s Static) Authenticate(context.Context, string) (Result, error) {
	return Result{Success: s.Hardware && s.Enrolled && s.Success}, nil
}
