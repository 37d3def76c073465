package component

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/badgekeeper/internal/metrics"
	"github.com/hitoshi/badgekeeper/internal/model"
	"github.com/hitoshi/badgekeeper/internal/repository"
)

// 保存時のメトリクスで使用するコンポーネント種別ラベル。
const (
	kindIssuer     = "issuer"
	kindBadgeClass = "badge_class"
	kindInstance   = "badge_instance"
)

// UpsertService はローカルコンポーネントの冪等な保存処理を提供する。
// 各コンポーネントは正規URLをキーとして一度だけ作成され、
// 以後の保存要求には既存行が返される。導出は厳密にトップダウン:
// BadgeInstance → BadgeClass → Issuer。
type UpsertService struct {
	issuerRepo   repository.IssuerRepository
	badgeRepo    repository.BadgeClassRepository
	instanceRepo repository.BadgeInstanceRepository
	resolver     RecipientResolver
	baker        Baker
	images       ImageStore
	media        MediaConfig
	collector    metrics.MetricsCollector
}

// NewUpsertService はUpsertServiceの新しいインスタンスを生成する。
// collectorはnil可（メトリクス記録をスキップする）。
func NewUpsertService(
	issuerRepo repository.IssuerRepository,
	badgeRepo repository.BadgeClassRepository,
	instanceRepo repository.BadgeInstanceRepository,
	resolver RecipientResolver,
	baker Baker,
	images ImageStore,
	media MediaConfig,
	collector metrics.MetricsCollector,
) *UpsertService {
	return &UpsertService{
		issuerRepo:   issuerRepo,
		badgeRepo:    badgeRepo,
		instanceRepo: instanceRepo,
		resolver:     resolver,
		baker:        baker,
		images:       images,
		media:        media,
		collector:    collector,
	}
}

// UpsertOptions はUpsertInstanceの省略可能な引数をまとめた構造体。
type UpsertOptions struct {
	// RecipientUser は明示的に指定する受領者ユーザー。
	// nilの場合はリゾルバによる外部ルックアップにフォールバックする。
	RecipientUser *model.User
	// Image は明示的に指定するベイク済み画像。
	// nilの場合はベイカーから取得する。
	Image *model.BadgeImage
}

// UpsertIssuer は解析済みペイロードのissuerブロックからIssuer行を取得または作成する。
// ペイロードが無効な場合はBadgeErrorを返す。
// ペイロードのバージョンにIssuerの概念がない場合（0.5形式）は(nil, nil)を返す。
func (s *UpsertService) UpsertIssuer(ctx context.Context, abi *model.AnalyzedBadge) (*model.Issuer, error) {
	if !abi.IsValid() {
		return nil, model.NewInvalidBadgeInstanceError("Issuer")
	}

	// 0.5形式にはIssuerが存在しない
	if abi.Issuer == nil {
		return nil, nil
	}

	existing, err := s.issuerRepo.FindByURL(ctx, abi.Issuer.URL)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.recordLookupHit(kindIssuer)
		return existing, nil
	}

	doc := abi.IssuerBlock()
	if doc == nil {
		doc = map[string]any{}
	}
	doc["@context"] = model.OpenBadgesContext

	now := time.Now()
	issuer := &model.Issuer{
		ID:        uuid.New().String(),
		URL:       abi.Issuer.URL,
		JSON:      doc,
		Errors:    versionErrors(abi.Issuer, "Issuer"),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.issuerRepo.Create(ctx, issuer); err != nil {
		return nil, err
	}

	s.recordCreate(kindIssuer)
	slog.Info("Issuerを作成しました",
		slog.String("issuer_id", issuer.ID),
		slog.String("url", issuer.URL),
	)

	return issuer, nil
}

// UpsertBadgeClass は解析済みペイロードのbadgeブロックからBadgeClass行を取得または作成する。
// 作成時はUpsertIssuer経由でIssuerを解決して紐付ける。Issuer参照は必須のため、
// badgeセクションがあるのにIssuerを解決できない場合はBadgeErrorを返す。
// ペイロードのバージョンにBadgeClassの概念がない場合（0.5形式）は(nil, nil)を返す。
func (s *UpsertService) UpsertBadgeClass(ctx context.Context, abi *model.AnalyzedBadge) (*model.BadgeClass, error) {
	if !abi.IsValid() {
		return nil, model.NewInvalidBadgeInstanceError("BadgeClass")
	}

	// 0.5形式にはBadgeClassが存在しない
	if abi.Badge == nil {
		return nil, nil
	}

	existing, err := s.badgeRepo.FindByURL(ctx, abi.Badge.URL)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.recordLookupHit(kindBadgeClass)
		return existing, nil
	}

	doc := abi.BadgeBlock()
	if doc == nil {
		doc = map[string]any{}
	}
	doc["@context"] = model.OpenBadgesContext

	issuer, err := s.UpsertIssuer(ctx, abi)
	if err != nil {
		return nil, err
	}
	// BadgeClassはちょうど1つのIssuerへの参照を必須とする。
	// badgeセクションがあるのにIssuerを解決できないペイロードは保存しない。
	if issuer == nil {
		return nil, model.NewIssuerRequiredError(abi.Badge.URL)
	}

	now := time.Now()
	badgeClass := &model.BadgeClass{
		ID:        uuid.New().String(),
		URL:       abi.Badge.URL,
		IssuerID:  issuer.ID,
		JSON:      doc,
		Errors:    versionErrors(abi.Badge, "BadgeClass"),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.badgeRepo.Create(ctx, badgeClass); err != nil {
		return nil, err
	}

	s.recordCreate(kindBadgeClass)
	slog.Info("BadgeClassを作成しました",
		slog.String("badge_class_id", badgeClass.ID),
		slog.String("url", badgeClass.URL),
	)

	return badgeClass, nil
}

// UpsertInstance は解析済みペイロード全体からBadgeInstance行を取得または作成する。
//
// 既存行が見つかった場合: 受領者ユーザーが未解決でoptsに指定があれば
// 後付けして保存する（モデル全体で唯一の更新経路）。それ以外は既存行を
// そのまま返す。
//
// 新規作成時: 受領者ユーザーを解決し、BadgeClassをUpsertBadgeClass経由で
// 解決し、ベイク済み画像を取得してユニークなファイル名で保存する。
// issuerはbadgeclassから推移的に設定される。画像保存後にバックエンドが
// パスを書き換えた場合はJSONドキュメントのimage URLのみ再保存する。
func (s *UpsertService) UpsertInstance(ctx context.Context, abi *model.AnalyzedBadge, opts UpsertOptions) (*model.BadgeInstance, error) {
	if !abi.IsValid() {
		return nil, model.NewInvalidBadgeInstanceError("BadgeInstance")
	}

	existing, err := s.instanceRepo.FindByURL(ctx, abi.InstanceURL)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.RecipientUserID == "" && opts.RecipientUser != nil {
			if err := s.instanceRepo.UpdateRecipientUser(ctx, existing.ID, opts.RecipientUser.ID); err != nil {
				return nil, err
			}
			existing.RecipientUserID = opts.RecipientUser.ID
			slog.Info("既存BadgeInstanceに受領者ユーザーを紐付けました",
				slog.String("instance_id", existing.ID),
				slog.String("recipient_user_id", existing.RecipientUserID),
			)
		}
		s.recordLookupHit(kindInstance)
		return existing, nil
	}

	recipientUserID, err := s.resolveRecipient(ctx, abi, opts)
	if err != nil {
		return nil, err
	}

	badgeClass, err := s.UpsertBadgeClass(ctx, abi)
	if err != nil {
		return nil, err
	}

	image := opts.Image
	if image == nil {
		image, err = s.bake(ctx, abi)
		if err != nil {
			return nil, err
		}
	}

	imageName := newImageName(image.Name)

	doc := make(map[string]any, len(abi.Data)+1)
	for k, v := range abi.Data {
		doc[k] = v
	}
	doc["image"] = ImageURL(s.media, imageName)

	now := time.Now()
	instance := &model.BadgeInstance{
		ID:              uuid.New().String(),
		URL:             abi.InstanceURL,
		RecipientID:     abi.RecipientID,
		RecipientUserID: recipientUserID,
		ImageName:       imageName,
		JSON:            doc,
		Errors:          abi.AllErrors(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// issuerの検出はBadgeClassの責務。インスタンスには推移的に設定する。
	if badgeClass != nil {
		instance.BadgeClassID = badgeClass.ID
		instance.IssuerID = badgeClass.IssuerID
	}

	if err := s.instanceRepo.Create(ctx, instance); err != nil {
		return nil, err
	}

	storedName, err := s.images.Save(ctx, imageName, image.Data)
	if err != nil {
		return nil, fmt.Errorf("バッジ画像の保存に失敗しました: %w", err)
	}

	// バックエンドがパスを書き換えた場合のみ、URLを再計算して再保存する。
	if url := ImageURL(s.media, storedName); url != instance.JSON["image"] {
		instance.ImageName = storedName
		instance.JSON["image"] = url
		if err := s.instanceRepo.UpdateImage(ctx, instance.ID, storedName, instance.JSON); err != nil {
			return nil, err
		}
	}

	s.recordCreate(kindInstance)
	slog.Info("BadgeInstanceを作成しました",
		slog.String("instance_id", instance.ID),
		slog.String("url", instance.URL),
		slog.String("recipient_id", instance.RecipientID),
	)

	return instance, nil
}

// InstanceImageURL は保存済みBadgeInstanceの画像の絶対URLを返す。
func (s *UpsertService) InstanceImageURL(instance *model.BadgeInstance) string {
	return ImageURL(s.media, instance.ImageName)
}

// resolveRecipient は受領者ユーザーIDを解決する。
// optsに指定があればそれを使用し、なければリゾルバで識別子から検索する。
// どちらでも解決できない場合は空文字列（未解決）を返す。
func (s *UpsertService) resolveRecipient(ctx context.Context, abi *model.AnalyzedBadge, opts UpsertOptions) (string, error) {
	if opts.RecipientUser != nil {
		return opts.RecipientUser.ID, nil
	}
	if s.resolver == nil {
		return "", nil
	}
	user, err := s.resolver.FindRecipientUser(ctx, abi.RecipientID)
	if err != nil {
		return "", fmt.Errorf("受領者ユーザーの解決に失敗しました: %w", err)
	}
	if user == nil {
		return "", nil
	}
	return user.ID, nil
}

// bake はベイカーからベイク済み画像を取得し、レイテンシと成否を記録する。
func (s *UpsertService) bake(ctx context.Context, abi *model.AnalyzedBadge) (*model.BadgeImage, error) {
	start := time.Now()
	image, err := s.baker.BakedImage(ctx, abi)
	if s.collector != nil {
		s.collector.RecordBakeLatency(time.Since(start))
	}
	if err != nil {
		if s.collector != nil {
			s.collector.RecordBakeFailure()
		}
		return nil, model.NewBakeFailedError(err.Error())
	}
	if s.collector != nil {
		s.collector.RecordBakeSuccess()
	}
	return image, nil
}

func (s *UpsertService) recordLookupHit(kind string) {
	if s.collector != nil {
		s.collector.RecordLookupHit(kind)
	}
}

func (s *UpsertService) recordCreate(kind string) {
	if s.collector != nil {
		s.collector.RecordCreate(kind)
	}
}

// versionErrors はバージョン検出に失敗したセクションのエラーレコードを構築する。
// 検出に成功している場合はnilを返す。
func versionErrors(section *model.AnalyzedSection, kind string) []model.ErrorDetail {
	if section.Version != "" {
		return nil
	}
	return []model.ErrorDetail{{
		Code:    "error.version_detection",
		Message: "Could not determine Open Badges version of " + kind,
		Details: section.VersionErrors,
	}}
}
