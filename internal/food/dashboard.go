package food

import (
	"context"
	"strings"

	"github.com/hitoshi/foodtracker/internal/model"
)

// PageSize はダッシュボード1ページあたりの表示件数。
const PageSize = 10

// EmptyMessage は検索結果が0件の場合の表示メッセージ。
const EmptyMessage = "No results found."

// EntryService はダッシュボードが使用する食事記録サービスの操作。
type EntryService interface {
	List(ctx context.Context, userID string) ([]*model.FoodEntry, error)
	Delete(ctx context.Context, userID, id string) error
}

// ConfirmFunc は削除前の確認フック。falseを返すと削除を中止する。
type ConfirmFunc func(entry *model.FoodEntry) bool

// Header はダッシュボード上部に表示するユーザー情報。
type Header struct {
	Fullname  string
	AvatarURL string
}

// Page はダッシュボードの1画面分の表示内容。
type Page struct {
	Header     Header
	Query      string
	Items      []*model.FoodEntry
	Page       int
	TotalPages int
	TotalCount int
	HasPrev    bool
	HasNext    bool
	Empty      bool
	Message    string
}

// Dashboard は食事記録一覧の画面状態（全件リスト、検索語、現在ページ）を保持する。
// 1リクエスト内でのみ使用し、並行アクセスは想定しない。
type Dashboard struct {
	service           EntryService
	user              model.SessionUser
	placeholderAvatar string

	entries []*model.FoodEntry
	query   string
	page    int
}

// NewDashboard はセッションユーザーのダッシュボードを生成する。
func NewDashboard(service EntryService, user model.SessionUser, placeholderAvatar string) *Dashboard {
	return &Dashboard{
		service:           service,
		user:              user,
		placeholderAvatar: placeholderAvatar,
		page:              1,
	}
}

// Load はユーザーの全食事記録を取得する。ユーザーIDが空の場合は取得しない。
func (d *Dashboard) Load(ctx context.Context) error {
	if d.user.ID == "" {
		d.entries = nil
		return nil
	}
	entries, err := d.service.List(ctx, d.user.ID)
	if err != nil {
		return err
	}
	d.entries = entries
	d.clamp()
	return nil
}

// SetQuery は検索語を変更し、1ページ目に戻す。
func (d *Dashboard) SetQuery(q string) {
	d.query = q
	d.page = 1
}

// Filtered は検索語を食事名に大文字小文字を区別せず部分一致させた結果を返す。
// 検索語が空の場合は全件を返す。空白も検索語の一部として扱う。
func (d *Dashboard) Filtered() []*model.FoodEntry {
	q := strings.ToLower(d.query)
	if q == "" {
		return d.entries
	}
	var result []*model.FoodEntry
	for _, e := range d.entries {
		if strings.Contains(strings.ToLower(e.Foodname), q) {
			result = append(result, e)
		}
	}
	return result
}

// TotalPages は検索結果のページ数 ceil(件数/PageSize) を返す。
func (d *Dashboard) TotalPages() int {
	return (len(d.Filtered()) + PageSize - 1) / PageSize
}

// CurrentPage は現在のページ番号を返す。
func (d *Dashboard) CurrentPage() int {
	return d.page
}

// GoTo は指定ページに移動する。範囲外の指定は [1, TotalPages] に丸める。
func (d *Dashboard) GoTo(page int) {
	d.page = page
	d.clamp()
}

// Next は次のページに移動する。最終ページでは何もしない。
func (d *Dashboard) Next() {
	d.GoTo(d.page + 1)
}

// Prev は前のページに移動する。1ページ目では何もしない。
func (d *Dashboard) Prev() {
	d.GoTo(d.page - 1)
}

func (d *Dashboard) clamp() {
	last := d.TotalPages()
	if last < 1 {
		last = 1
	}
	if d.page > last {
		d.page = last
	}
	if d.page < 1 {
		d.page = 1
	}
}

// View は現在のページの表示内容を返す。
func (d *Dashboard) View() Page {
	filtered := d.Filtered()
	total := d.TotalPages()

	start := (d.page - 1) * PageSize
	end := start + PageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}

	p := Page{
		Header: Header{
			Fullname:  d.user.Fullname,
			AvatarURL: d.user.AvatarURL(d.placeholderAvatar),
		},
		Query:      d.query,
		Items:      filtered[start:end],
		Page:       d.page,
		TotalPages: total,
		TotalCount: len(filtered),
		HasPrev:    d.page > 1,
		HasNext:    d.page < total,
		Empty:      len(filtered) == 0,
	}
	if p.Empty {
		p.Message = EmptyMessage
	}
	return p
}

// Delete は一覧上の食事記録を削除する。
// confirmがfalseを返した場合は何もせずfalseを返す。confirmがnilの場合は確認済みとして扱う。
// 削除に成功した場合のみ一覧から取り除き、再取得は行わない。
func (d *Dashboard) Delete(ctx context.Context, id string, confirm ConfirmFunc) (bool, error) {
	idx := -1
	for i, e := range d.entries {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, model.NewFoodNotFoundError(id)
	}
	if confirm != nil && !confirm(d.entries[idx]) {
		return false, nil
	}

	if err := d.service.Delete(ctx, d.user.ID, id); err != nil {
		return false, err
	}

	d.entries = append(d.entries[:idx:idx], d.entries[idx+1:]...)
	d.clamp()
	return true, nil
}
