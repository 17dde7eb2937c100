// Package taskview はダッシュボード表示用にタスク一覧を絞り込み・並べ替え・集計する。
// 入力は変更せず、常に新しいスライスを返す。
package taskview

import (
	"slices"
	"strings"
	"time"

	"github.com/hitoshi/taskboard/internal/model"
)

// FilterAll は絞り込みを無効にする選択値。
const FilterAll = "all"

// Filter は表示条件。空文字と "all" は絞り込みなしを表す。
type Filter struct {
	Search    string
	Status    string
	Priority  string
	SortBy    string
	SortOrder string
}

// Counts は状態別のタスク件数。絞り込み前の全件から算出する。
type Counts struct {
	Total      int `json:"total"`
	Todo       int `json:"todo"`
	InProgress int `json:"inProgress"`
	Done       int `json:"done"`
}

// View は表示用タスクと集計結果。
type View struct {
	Tasks  []*model.Task
	Counts Counts
}

// Derive は条件に従ってタスクを絞り込み、安定ソートした結果と全件の集計を返す。
func Derive(tasks []*model.Task, f Filter) View {
	return View{
		Tasks:  Apply(tasks, f),
		Counts: Count(tasks),
	}
}

// Apply は絞り込みと並べ替えのみを行う。
func Apply(tasks []*model.Task, f Filter) []*model.Task {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]*model.Task, 0, len(tasks))
	for _, t := range tasks {
		if !isAll(f.Status) && string(t.Status) != f.Status {
			continue
		}
		if !isAll(f.Priority) && string(t.Priority) != f.Priority {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		out = append(out, t)
	}

	cmp := comparator(f.SortBy)
	if strings.EqualFold(f.SortOrder, string(model.SortAsc)) {
		slices.SortStableFunc(out, cmp)
	} else {
		slices.SortStableFunc(out, func(a, b *model.Task) int { return cmp(b, a) })
	}
	return out
}

// Count は状態別の件数を数える。
func Count(tasks []*model.Task) Counts {
	c := Counts{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case model.TaskStatusTodo:
			c.Todo++
		case model.TaskStatusInProgress:
			c.InProgress++
		case model.TaskStatusDone:
			c.Done++
		}
	}
	return c
}

// comparator は昇順の比較関数を返す。日時フィールドは時刻で、それ以外は文字列で比較する。
// 未知のフィールドは作成日時として扱う。
func comparator(sortBy string) func(a, b *model.Task) int {
	switch sortBy {
	case model.SortByUpdatedAt:
		return func(a, b *model.Task) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case model.SortByDueDate:
		return func(a, b *model.Task) int { return dueTime(a).Compare(dueTime(b)) }
	case model.SortByTitle:
		return func(a, b *model.Task) int { return strings.Compare(a.Title, b.Title) }
	case model.SortByStatus:
		return func(a, b *model.Task) int { return strings.Compare(string(a.Status), string(b.Status)) }
	case model.SortByPriority:
		return func(a, b *model.Task) int { return strings.Compare(string(a.Priority), string(b.Priority)) }
	default:
		return func(a, b *model.Task) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
}

// dueTime は期限なしを最も早い時刻として扱う。
func dueTime(t *model.Task) time.Time {
	if t.DueDate == nil {
		return time.Time{}
	}
	return *t.DueDate
}

func isAll(v string) bool {
	return v == "" || v == FilterAll
}
