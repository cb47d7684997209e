//go:build !noboost

package forecast

import "github.com/IanaraFer/dataSite-sub000/internal/domain/models"

func init() {
	Register(models.BackendBoosted, func() Backend { return NewBoostedBackend() })
}
