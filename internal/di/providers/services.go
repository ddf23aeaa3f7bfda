package providers

import (
	"github.com/samber/do/v2"

	"github.com/photogram/photogram-server/internal/keylock"
	"github.com/photogram/photogram-server/internal/logger"
	"github.com/photogram/photogram-server/internal/metrics"
	"github.com/photogram/photogram-server/internal/service"
)

// ProvideKeyLock provides the striped lock that serializes toggles per user and target.
func ProvideKeyLock(i do.Injector) (*keylock.Striped, error) {
	return keylock.New(keyLockStripes), nil
}

// ProvideLikeService provides the like service.
func ProvideLikeService(i do.Injector) (*service.LikeService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	locks := do.MustInvoke[*keylock.Striped](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLikeService(storeHandle.Store, locks, m, log.Logger), nil
}

// ProvideCommentService provides the comment service.
func ProvideCommentService(i do.Injector) (*service.CommentService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	likes := do.MustInvoke[*service.LikeService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCommentService(storeHandle.Store, likes, log.Logger), nil
}

// ProvidePhotoService provides the photo service.
func ProvidePhotoService(i do.Injector) (*service.PhotoService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	likes := do.MustInvoke[*service.LikeService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPhotoService(storeHandle.Store, likes, log.Logger), nil
}

// ProvideUserService provides the user service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	photos := do.MustInvoke[*service.PhotoService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewUserService(storeHandle.Store, photos, log.Logger), nil
}

// ProvideMaintenanceService provides the index and counter repair service.
func ProvideMaintenanceService(i do.Injector) (*service.MaintenanceService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewMaintenanceService(storeHandle.Store, m, log.Logger), nil
}
