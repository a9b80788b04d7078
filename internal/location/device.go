package location

import "context"

// StaticDevice reports a fixed position. It stands in for a GPS receiver on
// hosts that have none, such as the CLI.
type StaticDevice struct {
	Position Position
	Denied   bool
	Err      error
}

func (d StaticDevice) RequestPermission(ctx context.Context) (Permission, error) {
	if err := ctx.Err(); err != nil {
		return PermissionDenied, err
	}
	if d.Denied {
		return PermissionDenied, nil
	}
	return PermissionGranted, nil
}

func (d StaticDevice) CurrentPosition(ctx context.Context, _ Accuracy) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	if d.Err != nil {
		return Position{}, d.Err
	}
	return d.Position, nil
}
