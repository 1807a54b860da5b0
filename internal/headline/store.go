// Package headline は見出しの取得・正規化・保持のドメインロジックを提供する。
package headline

import (
	"sync"

	"github.com/hitoshi/factman/internal/model"
)

// Store はプロセス内メモリ上の記事ストア。
// 記事は現在のセッションの間だけ保持され、永続化されない。
// カテゴリの再取得で該当カテゴリの記事は総入れ替えされるため、
// 入れ替え後に届いた古い検証結果はIDが見つからず自然に破棄される。
//
// 検証状態の遷移（not_started → pending → done）はStoreが所有する。
type Store struct {
	mu         sync.RWMutex
	articles   map[string]*model.Article
	byCategory map[model.Category][]string // 表示順のID列
}

// NewStore はStoreの新しいインスタンスを生成する。
func NewStore() *Store {
	return &Store{
		articles:   make(map[string]*model.Article),
		byCategory: make(map[model.Category][]string),
	}
}

// ReplaceCategory はカテゴリの記事一覧を総入れ替えする。
// 以前の同カテゴリの記事はストアから削除される。
func (s *Store) ReplaceCategory(category model.Category, articles []model.Article) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 旧記事の削除
	for _, id := range s.byCategory[category] {
		delete(s.articles, id)
	}

	ids := make([]string, 0, len(articles))
	for i := range articles {
		a := articles[i]
		s.articles[a.ID] = &a
		ids = append(ids, a.ID)
	}
	s.byCategory[category] = ids
}

// List はカテゴリの記事を表示順で返す。記事はコピーで返す。
func (s *Store) List(category model.Category) []model.Article {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byCategory[category]
	articles := make([]model.Article, 0, len(ids))
	for _, id := range ids {
		if a, ok := s.articles[id]; ok {
			articles = append(articles, *a)
		}
	}
	return articles
}

// Get はIDで記事を取得する。記事はコピーで返す。
func (s *Store) Get(id string) (model.Article, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.articles[id]
	if !ok {
		return model.Article{}, false
	}
	return *a, true
}

// SetPending は記事の検証状態をpendingに遷移させる。
// 記事が存在しない場合はfalseを返す。
func (s *Store) SetPending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.articles[id]
	if !ok {
		return false
	}
	a.Verification = model.VerificationState{Phase: model.VerificationPending}
	return true
}

// ApplyVerdict は検証判定を記事に適用し、状態をdoneに遷移させる。
// 記事が既に入れ替えで消えている場合は何もせずfalseを返す
// （遅延して届いた古い結果の破棄に相当する）。
func (s *Store) ApplyVerdict(id string, verdict model.Verdict) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.articles[id]
	if !ok {
		return false
	}
	a.Verification = model.VerificationState{
		Phase:   model.VerificationDone,
		Verdict: &verdict,
	}
	return true
}

// ResetVerification は記事の検証状態を未着手に戻す。
// 検証処理が予期せず失敗した場合の復帰経路として使用する。
func (s *Store) ResetVerification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.articles[id]; ok {
		a.Verification = model.NewVerificationState()
	}
}
