package center

import (
	"context"

	"civid/internal/schedule"
	id "civid/pkg/domain"
	derrors "civid/pkg/domain-errors"
	"civid/pkg/platform/sentinel"
)

// Directory adapts the center store to the schedule generator's
// CenterDirectory port.
type Directory struct {
	centers Store
}

func NewDirectory(centers Store) *Directory {
	return &Directory{centers: centers}
}

func (d *Directory) Center(ctx context.Context, centerID id.CenterID) (schedule.CenterInfo, error) {
	c, err := d.centers.FindByID(ctx, centerID)
	if err != nil {
		if derrors.Is(err, sentinel.ErrNotFound) {
			return schedule.CenterInfo{}, derrors.New(derrors.CodeNotFound, "center not found")
		}
		return schedule.CenterInfo{}, derrors.Wrap(err, derrors.CodeInternal, "load center")
	}
	return schedule.CenterInfo{ID: c.ID, Template: c.Template}, nil
}

func (d *Directory) ActiveCenters(ctx context.Context) ([]schedule.CenterInfo, error) {
	centers, err := d.centers.ListActive(ctx)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "list active centers")
	}
	out := make([]schedule.CenterInfo, 0, len(centers))
	for _, c := range centers {
		out = append(out, schedule.CenterInfo{ID: c.ID, Template: c.Template})
	}
	return out, nil
}
