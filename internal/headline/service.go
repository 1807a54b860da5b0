package headline

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/factman/internal/model"
)

// imageResolveConcurrency は画像補完の同時実行数の上限。
const imageResolveConcurrency = 4

// Provider は見出し取得プロバイダのインターフェース。
// ニュースAPIクライアントとRSSフォールバックプロバイダが実装する。
type Provider interface {
	// FetchHeadlines は指定条件の見出しを正規化済みで返す。
	FetchHeadlines(ctx context.Context, q model.HeadlineQuery) ([]model.Article, error)
	// Name はメトリクスラベル等で使用するプロバイダ名を返す。
	Name() string
}

// Verifier は検証エンジンのインターフェース。
type Verifier interface {
	// Verify は記事を検証して判定を返す。失敗しない。
	Verify(ctx context.Context, article *model.Article) model.Verdict
}

// Sanitizer は記事テキストのサニタイズのインターフェース。
type Sanitizer interface {
	SanitizeText(raw string) string
}

// FetchRecorder は見出し取得のメトリクス記録のインターフェース。
type FetchRecorder interface {
	RecordHeadlineFetchSuccess(provider string)
	RecordHeadlineFetchFailure(provider string)
}

// Service は見出し取得と記事検証のユースケースを提供する。
type Service struct {
	primary   Provider
	fallback  Provider // nilの場合はフォールバックなし
	verifier  Verifier
	store     *Store
	sanitizer Sanitizer
	images    ImageResolverService // nilの場合は画像補完なし
	logger    *slog.Logger
	metrics   FetchRecorder // nilの場合は記録しない
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	primary Provider,
	fallback Provider,
	verifier Verifier,
	store *Store,
	sanitizer Sanitizer,
	images ImageResolverService,
	logger *slog.Logger,
	metrics FetchRecorder,
) *Service {
	return &Service{
		primary:   primary,
		fallback:  fallback,
		verifier:  verifier,
		store:     store,
		sanitizer: sanitizer,
		images:    images,
		logger:    logger,
		metrics:   metrics,
	}
}

// List は見出し一覧を取得してストアに格納し、検証状態つきで返す。
//
// フォールバック順序:
//
//  1. プライマリプロバイダで要求カテゴリを取得
//  2. 空かつ非generalカテゴリの場合、generalカテゴリで再取得
//  3. 失敗または依然空の場合、RSSフォールバックプロバイダ（設定時のみ）
//
// それでも取得できない場合はユーザー向けメッセージに変換可能なエラーを返す。
func (s *Service) List(ctx context.Context, q model.HeadlineQuery) ([]model.Article, error) {
	if q.Category == "" {
		q.Category = model.CategoryGeneral
	}
	if !model.ValidCategory(q.Category) {
		return nil, model.NewInvalidCategoryError(string(q.Category))
	}

	articles, err := s.fetchWithFallback(ctx, q)
	if err != nil {
		return nil, model.NewHeadlineFetchFailedError(err.Error())
	}
	if len(articles) == 0 {
		return nil, model.NewHeadlinesEmptyError()
	}

	s.enrich(ctx, articles)
	s.store.ReplaceCategory(q.Category, articles)

	return s.store.List(q.Category), nil
}

// fetchWithFallback はフォールバック順序に従って見出しを取得する。
func (s *Service) fetchWithFallback(ctx context.Context, q model.HeadlineQuery) ([]model.Article, error) {
	articles, err := s.fetchFrom(ctx, s.primary, q)

	// 空の非generalカテゴリはgeneralで再試行する（検索条件つきの場合を除く）
	if err == nil && len(articles) == 0 && q.Category != model.CategoryGeneral && q.Search == "" {
		s.logger.Info("カテゴリが空のためgeneralにフォールバックします",
			slog.String("category", string(q.Category)),
		)
		fallbackQ := q
		fallbackQ.Category = model.CategoryGeneral
		articles, err = s.fetchFrom(ctx, s.primary, fallbackQ)
	}

	// プライマリが失敗または空の場合はRSSフォールバック
	if (err != nil || len(articles) == 0) && s.fallback != nil {
		if err != nil {
			s.logger.Warn("プライマリプロバイダが失敗したためRSSフォールバックを使用します",
				slog.String("error", err.Error()),
			)
		}
		fbArticles, fbErr := s.fetchFrom(ctx, s.fallback, q)
		if fbErr == nil {
			return fbArticles, nil
		}
		s.logger.Warn("RSSフォールバックにも失敗しました", slog.String("error", fbErr.Error()))
	}

	return articles, err
}

// fetchFrom は単一プロバイダから見出しを取得し、結果をメトリクスに記録する。
func (s *Service) fetchFrom(ctx context.Context, p Provider, q model.HeadlineQuery) ([]model.Article, error) {
	articles, err := p.FetchHeadlines(ctx, q)
	if s.metrics != nil {
		if err != nil {
			s.metrics.RecordHeadlineFetchFailure(p.Name())
		} else {
			s.metrics.RecordHeadlineFetchSuccess(p.Name())
		}
	}
	return articles, err
}

// enrich は記事テキストのサニタイズと画像URLの補完を行う。
// 画像補完はベストエフォートで、上限つきの並列実行を行う。
func (s *Service) enrich(ctx context.Context, articles []model.Article) {
	for i := range articles {
		a := &articles[i]
		a.Title = sanitizeOrDefault(s.sanitizer, a.Title, model.DefaultTitle)
		a.SourceName = sanitizeOrDefault(s.sanitizer, a.SourceName, model.DefaultSourceName)
		a.Content = sanitizeOrDefault(s.sanitizer, a.Content, model.DefaultContent)
	}

	if s.images == nil {
		return
	}

	g := new(errgroup.Group)
	g.SetLimit(imageResolveConcurrency)
	for i := range articles {
		a := &articles[i]
		if a.ImageURL != "" || a.URL == "" {
			continue
		}
		g.Go(func() error {
			a.ImageURL = s.images.ResolveImage(ctx, a.URL)
			return nil
		})
	}
	g.Wait()
}

// sanitizeOrDefault はテキストをサニタイズし、空になった場合はデフォルト値を返す。
func sanitizeOrDefault(s Sanitizer, raw, defaultVal string) string {
	cleaned := s.SanitizeText(raw)
	if cleaned == "" {
		return defaultVal
	}
	return cleaned
}

// Get はIDで記事を取得する。
func (s *Service) Get(ctx context.Context, id string) (model.Article, error) {
	a, ok := s.store.Get(id)
	if !ok {
		return model.Article{}, model.NewArticleNotFoundError(id)
	}
	return a, nil
}

// VerifyArticle は記事の検証を実行し、判定適用後の記事を返す。
//
// 状態遷移はStoreが所有する: 検証開始時にpendingへ、判定確定時にdoneへ遷移する。
// エンジンは常に判定を返す契約だが、予期しない欠陥でpanicした場合は
// 状態を未着手に戻して回復する。
func (s *Service) VerifyArticle(ctx context.Context, id string) (article model.Article, err error) {
	a, ok := s.store.Get(id)
	if !ok {
		return model.Article{}, model.NewArticleNotFoundError(id)
	}

	s.store.SetPending(id)

	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("検証エンジンが予期せず失敗しました",
				slog.Any("panic", rec),
				slog.String("article_id", id),
			)
			s.store.ResetVerification(id)
			article = model.Article{}
			err = model.NewVerifyFailedError()
		}
	}()

	verdict := s.verifier.Verify(ctx, &a)

	if !s.store.ApplyVerdict(id, verdict) {
		// 検証中にカテゴリが入れ替わった場合: 古い結果は適用せず破棄する
		s.logger.Info("入れ替え済み記事への検証結果を破棄しました",
			slog.String("article_id", id),
		)
		return model.Article{}, model.NewArticleNotFoundError(id)
	}

	updated, ok := s.store.Get(id)
	if !ok {
		return model.Article{}, model.NewArticleNotFoundError(id)
	}
	return updated, nil
}
