package task

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hitoshi/taskboard/internal/model"
)

// 検証エラーメッセージ
const (
	msgTitleRequired   = "Title is required"
	msgTitleEmpty      = "Title cannot be empty"
	msgInvalidStatus   = "Invalid status"
	msgInvalidPriority = "Invalid priority"
	msgInvalidDate     = "Invalid date format"
	msgInvalidSort     = "Invalid sort field"
)

var (
	msgTitleTooLong       = fmt.Sprintf("Title cannot exceed %d characters", model.MaxTitleLength)
	msgDescriptionTooLong = fmt.Sprintf("Description cannot exceed %d characters", model.MaxDescriptionLength)
)

// dueDateLayouts は受け付けるISO 8601の書式。タイムゾーンのない値はUTCとして解釈する。
var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// OptionalString はJSONの「未指定」「null」「値あり」を区別する文字列。
type OptionalString struct {
	Set   bool
	Valid bool
	Value string
}

// UnmarshalJSON はjson.Unmarshalerを実装する。フィールドが存在する場合のみ呼ばれる。
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Valid = false
		o.Value = ""
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

// CreateInput はタスク作成の入力。nilのフィールドは既定値を使う。
type CreateInput struct {
	Title       string         `json:"title"`
	Description *string        `json:"description"`
	Status      *string        `json:"status"`
	Priority    *string        `json:"priority"`
	DueDate     OptionalString `json:"dueDate"`
}

// UpdateInput はタスク更新の入力。指定されたフィールドのみ変更する。
// dueDate に null または空文字を指定すると期限を解除する。
type UpdateInput struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Status      *string        `json:"status"`
	Priority    *string        `json:"priority"`
	DueDate     OptionalString `json:"dueDate"`
}

// ListQuery は一覧取得のクエリパラメータ。
type ListQuery struct {
	Status    string
	Priority  string
	Search    string
	SortBy    string
	SortOrder string
}

// ParseListQuery はURLクエリから一覧取得条件を読み取る。
func ParseListQuery(values url.Values) ListQuery {
	return ListQuery{
		Status:    values.Get("status"),
		Priority:  values.Get("priority"),
		Search:    values.Get("search"),
		SortBy:    values.Get("sortBy"),
		SortOrder: values.Get("sortOrder"),
	}
}

// validatedFields は検証済みの更新値。nilは変更なしを表す。
type validatedFields struct {
	title       *string
	description *string
	status      *model.TaskStatus
	priority    *model.TaskPriority
	dueDateSet  bool
	dueDate     *time.Time
}

func (in CreateInput) validate() (*validatedFields, []string) {
	var problems []string
	v := &validatedFields{}

	title := strings.TrimSpace(in.Title)
	switch {
	case title == "":
		problems = append(problems, msgTitleRequired)
	case utf8.RuneCountInString(title) > model.MaxTitleLength:
		problems = append(problems, msgTitleTooLong)
	}
	v.title = &title

	problems = append(problems, v.validateCommon(in.Description, in.Status, in.Priority, in.DueDate)...)
	return v, problems
}

func (in UpdateInput) validate() (*validatedFields, []string) {
	var problems []string
	v := &validatedFields{}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		switch {
		case title == "":
			problems = append(problems, msgTitleEmpty)
		case utf8.RuneCountInString(title) > model.MaxTitleLength:
			problems = append(problems, msgTitleTooLong)
		}
		v.title = &title
	}

	problems = append(problems, v.validateCommon(in.Description, in.Status, in.Priority, in.DueDate)...)
	return v, problems
}

func (v *validatedFields) validateCommon(description, status, priority *string, dueDate OptionalString) []string {
	var problems []string

	if description != nil {
		d := strings.TrimSpace(*description)
		if utf8.RuneCountInString(d) > model.MaxDescriptionLength {
			problems = append(problems, msgDescriptionTooLong)
		}
		v.description = &d
	}
	if status != nil {
		s := model.TaskStatus(*status)
		if !s.Valid() {
			problems = append(problems, msgInvalidStatus)
		}
		v.status = &s
	}
	if priority != nil {
		p := model.TaskPriority(*priority)
		if !p.Valid() {
			problems = append(problems, msgInvalidPriority)
		}
		v.priority = &p
	}
	if dueDate.Set {
		v.dueDateSet = true
		if dueDate.Valid && strings.TrimSpace(dueDate.Value) != "" {
			t, err := ParseDueDate(dueDate.Value)
			if err != nil {
				problems = append(problems, msgInvalidDate)
			} else {
				v.dueDate = &t
			}
		}
	}

	return problems
}

// apply は検証済みの値をタスクに反映する。
func (v *validatedFields) apply(t *model.Task) {
	if v.title != nil {
		t.Title = *v.title
	}
	if v.description != nil {
		t.Description = *v.description
	}
	if v.status != nil {
		t.Status = *v.status
	}
	if v.priority != nil {
		t.Priority = *v.priority
	}
	if v.dueDateSet {
		t.DueDate = v.dueDate
	}
}

// ParseDueDate はISO 8601形式の日付または日時を解釈する。
func ParseDueDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date format: %q", value)
}
