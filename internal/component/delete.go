package component

import (
	"context"
	"log/slog"

	"github.com/hitoshi/badgekeeper/internal/model"
	"github.com/hitoshi/badgekeeper/internal/repository"
)

// DeleteService はローカルコンポーネントの削除処理を提供する。
// 外部キーのRESTRICTに加えて、削除前にアプリケーション側でも
// 参照整合性チェックを行う。
type DeleteService struct {
	issuerRepo   repository.IssuerRepository
	badgeRepo    repository.BadgeClassRepository
	instanceRepo repository.BadgeInstanceRepository
}

// NewDeleteService はDeleteServiceの新しいインスタンスを生成する。
func NewDeleteService(
	issuerRepo repository.IssuerRepository,
	badgeRepo repository.BadgeClassRepository,
	instanceRepo repository.BadgeInstanceRepository,
) *DeleteService {
	return &DeleteService{
		issuerRepo:   issuerRepo,
		badgeRepo:    badgeRepo,
		instanceRepo: instanceRepo,
	}
}

// DeleteIssuer は指定IDのIssuerを削除する。
// BadgeClassから参照されている場合はBadgeError（COMPONENT_PROTECTED）を返す。
func (s *DeleteService) DeleteIssuer(ctx context.Context, id string) error {
	issuer, err := s.issuerRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if issuer == nil {
		return model.NewComponentNotFoundError("Issuer", id)
	}

	count, err := s.badgeRepo.CountByIssuerID(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return model.NewComponentProtectedError("Issuer", count)
	}

	if err := s.issuerRepo.DeleteByID(ctx, id); err != nil {
		return err
	}

	slog.Info("Issuerを削除しました", slog.String("issuer_id", id))
	return nil
}

// DeleteBadgeClass は指定IDのBadgeClassを削除する。
// BadgeInstanceから参照されている場合はBadgeError（COMPONENT_PROTECTED）を返す。
func (s *DeleteService) DeleteBadgeClass(ctx context.Context, id string) error {
	badgeClass, err := s.badgeRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if badgeClass == nil {
		return model.NewComponentNotFoundError("BadgeClass", id)
	}

	count, err := s.instanceRepo.CountByBadgeClassID(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return model.NewComponentProtectedError("BadgeClass", count)
	}

	if err := s.badgeRepo.DeleteByID(ctx, id); err != nil {
		return err
	}

	slog.Info("BadgeClassを削除しました", slog.String("badge_class_id", id))
	return nil
}
