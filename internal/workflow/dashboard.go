package workflow

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/and161185/jobassist/internal/api"
	"github.com/and161185/jobassist/internal/model"
)

// DashboardAPI lists the three collections shown together.
type DashboardAPI interface {
	ListProfiles(ctx context.Context) ([]model.Profile, error)
	ListCompanies(ctx context.Context) ([]model.Company, error)
	ListLetters(ctx context.Context) ([]model.Letter, error)
}

var _ DashboardAPI = (*api.Client)(nil)

// Dashboard is the joined overview.
type Dashboard struct {
	Profiles  []model.Profile
	Companies []model.Company
	Letters   []model.Letter
}

// LoadDashboard fetches the three lists concurrently. Any single failure
// fails the whole load; there is no partial result.
func LoadDashboard(ctx context.Context, c DashboardAPI) (Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Profiles, err = c.ListProfiles(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Companies, err = c.ListCompanies(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Letters, err = c.ListLetters(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}
