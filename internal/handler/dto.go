package handler

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/quillpost/internal/db"
	"github.com/quillpost/internal/service"
)

const maxTagsPerPost = 10

var (
	hasLetter = regexp.MustCompile(`[A-Za-z]`)
	hasDigit  = regexp.MustCompile(`[0-9]`)
)

// postRequest is the body of create and update post calls.
type postRequest struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Excerpt       string   `json:"excerpt"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags"`
	FeaturedImage string   `json:"featuredImage"`
	Draft         bool     `json:"draft"`
}

func (r postRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.Required.Error("title is required"),
			validation.By(trimmedLength(10, 200)),
		),
		validation.Field(&r.Content,
			validation.Required.Error("content is required"),
			validation.By(trimmedLength(100, 0)),
		),
		validation.Field(&r.Excerpt,
			validation.Required.Error("excerpt is required"),
			validation.By(trimmedLength(10, 300)),
		),
		validation.Field(&r.Category,
			validation.Required.Error("category is required"),
			validation.In(categoryValues()...).Error("unknown category"),
		),
		validation.Field(&r.Tags,
			validation.Length(0, maxTagsPerPost).Error("at most 10 tags"),
			validation.Each(validation.Required, validation.By(trimmedLength(1, 20))),
		),
		validation.Field(&r.FeaturedImage, is.URL),
	)
}

func (r postRequest) input() service.PostInput {
	return service.PostInput{
		Title:         r.Title,
		Content:       r.Content,
		Excerpt:       r.Excerpt,
		Category:      db.Category(r.Category),
		Tags:          r.Tags,
		FeaturedImage: r.FeaturedImage,
		Draft:         r.Draft,
	}
}

type commentRequest struct {
	Content string `json:"content"`
}

func (r commentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content,
			validation.Required.Error("comment is required"),
			validation.By(trimmedLength(1, 1000)),
		),
	)
}

type replyRequest struct {
	Content string `json:"content"`
}

func (r replyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content,
			validation.Required.Error("reply is required"),
			validation.By(trimmedLength(1, 500)),
		),
	)
}

// rejectRequest is not length-checked here; the service owns the reason rule.
type rejectRequest struct {
	Reason string `json:"reason"`
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("email is required"),
			is.EmailFormat.Error("invalid email format"),
			validation.Length(5, 255),
		),
		validation.Field(&r.Password,
			validation.Required.Error("password is required"),
			validation.Length(8, 128).Error("password must be 8-128 characters"),
			validation.Match(hasLetter).Error("password must contain a letter"),
			validation.Match(hasDigit).Error("password must contain a number"),
		),
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 50)),
		validation.Field(&r.LastName, validation.Length(0, 50)),
	)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required),
	)
}

type userStatusRequest struct {
	Active *bool `json:"active"`
}

func (r userStatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Active, validation.NotNil.Error("active is required")),
	)
}

type userRoleRequest struct {
	Role string `json:"role"`
}

func (r userRoleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Role,
			validation.Required,
			validation.In(string(db.RoleUser), string(db.RoleAdmin)).Error("unknown role"),
		),
	)
}

// listQuery is bound from the query string of listing endpoints.
type listQuery struct {
	Page     int    `form:"page" json:"page"`
	Limit    int    `form:"limit" json:"limit"`
	Category string `form:"category" json:"category"`
	Search   string `form:"search" json:"search"`
	Sort     string `form:"sort" json:"sort"`
	Status   string `form:"status" json:"status"`
}

func (q listQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Page, validation.Min(0)),
		validation.Field(&q.Limit, validation.Min(0), validation.Max(50).Error("limit must be at most 50")),
		validation.Field(&q.Category, validation.In(categoryValues()...).Error("unknown category")),
		validation.Field(&q.Sort, validation.In(
			string(service.SortLatest), string(service.SortPopular), string(service.SortTrending),
		).Error("unknown sort")),
		validation.Field(&q.Status, validation.In(statusValues()...).Error("unknown status")),
	)
}

func (q listQuery) postQuery() service.PostQuery {
	return service.PostQuery{
		Page:     q.Page,
		Limit:    q.Limit,
		Category: db.Category(q.Category),
		Search:   q.Search,
		Sort:     service.SortOrder(q.Sort),
		Status:   db.PostStatus(q.Status),
	}
}

func categoryValues() []interface{} {
	values := make([]interface{}, 0, len(db.Categories))
	for _, category := range db.Categories {
		values = append(values, string(category))
	}
	return values
}

func statusValues() []interface{} {
	values := make([]interface{}, 0, len(db.PostStatuses))
	for _, status := range db.PostStatuses {
		values = append(values, string(status))
	}
	return values
}

// trimmedLength checks the rune length of a string after trimming spaces. maxLen 0 means unbounded.
func trimmedLength(minLen, maxLen int) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		n := len([]rune(strings.TrimSpace(s)))
		if n < minLen {
			return validation.NewError("validation_length_too_short", "must be at least {{.min}} characters").
				SetParams(map[string]interface{}{"min": minLen})
		}
		if maxLen > 0 && n > maxLen {
			return validation.NewError("validation_length_too_long", "must be at most {{.max}} characters").
				SetParams(map[string]interface{}{"max": maxLen})
		}
		return nil
	}
}
