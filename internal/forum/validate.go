package forum

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yungbote/tradeguild-backend/internal/domain"
)

const (
	minTitleLength   = 5
	maxTitleLength   = 200
	minContentLength = 20
)

type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// ValidatePost checks a post draft against the default category settings.
func ValidatePost(p *domain.Post) ValidationResult {
	return ValidatePostFor(p, domain.DefaultCategorySettings())
}

// ValidatePostFor checks a post draft against a category's settings and
// collects every failure instead of stopping at the first.
func ValidatePostFor(p *domain.Post, settings domain.CategorySettings) ValidationResult {
	if p == nil {
		return ValidationResult{Errors: []string{"Post is required"}}
	}
	var errs []string

	title := strings.TrimSpace(p.Title)
	switch n := utf8.RuneCountInString(title); {
	case n == 0:
		errs = append(errs, "Title is required")
	case n < minTitleLength:
		errs = append(errs, fmt.Sprintf("Title must be at least %d characters", minTitleLength))
	case n > maxTitleLength:
		errs = append(errs, fmt.Sprintf("Title must be at most %d characters", maxTitleLength))
	}

	content := strings.TrimSpace(p.Content)
	switch n := utf8.RuneCountInString(content); {
	case n == 0:
		errs = append(errs, "Content is required")
	case n < minContentLength:
		errs = append(errs, fmt.Sprintf("Content must be at least %d characters", minContentLength))
	case settings.MaxPostLength > 0 && n > settings.MaxPostLength:
		errs = append(errs, fmt.Sprintf("Content must be at most %d characters", settings.MaxPostLength))
	}

	if strings.TrimSpace(p.Category) == "" {
		errs = append(errs, "Category is required")
	}
	if p.PostType != "" && !p.PostType.Valid() {
		errs = append(errs, fmt.Sprintf("Invalid post type %q", p.PostType))
	}
	errs = append(errs, validateTags(p.Tags, settings)...)

	switch p.PostType {
	case domain.PostTradeIdea:
		errs = append(errs, validateTrade(p.TradingData())...)
	case domain.PostEvent:
		ev, _ := p.Payload.(*domain.EventData)
		errs = append(errs, validateEvent(ev)...)
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

func validateTags(tags []string, settings domain.CategorySettings) []string {
	var errs []string
	limit := domain.MaxTags
	if settings.MaxTags > 0 && settings.MaxTags < limit {
		limit = settings.MaxTags
	}
	if len(tags) > limit {
		errs = append(errs, fmt.Sprintf("A post can have at most %d tags", limit))
	}
	if settings.TagsRequired && len(tags) == 0 {
		errs = append(errs, "At least one tag is required")
	}
	for _, t := range tags {
		if strings.TrimSpace(t) == "" {
			errs = append(errs, "Tags cannot be empty")
			break
		}
	}
	return errs
}

func validateTrade(td *domain.TradingData) []string {
	if td == nil || strings.TrimSpace(td.Symbol) == "" {
		return []string{"Trade ideas require a symbol"}
	}
	var errs []string
	if td.EntryPrice < 0 || td.TargetPrice < 0 || td.StopLoss < 0 {
		errs = append(errs, "Prices cannot be negative")
	}
	if td.Confidence < 0 || td.Confidence > 100 {
		errs = append(errs, "Confidence must be between 0 and 100")
	}
	if td.EntryPrice > 0 && td.StopLoss > 0 {
		switch td.Direction {
		case domain.Long:
			if td.StopLoss >= td.EntryPrice {
				errs = append(errs, "Stop loss must be below entry for long positions")
			}
		case domain.Short:
			if td.StopLoss <= td.EntryPrice {
				errs = append(errs, "Stop loss must be above entry for short positions")
			}
		}
	}
	return errs
}

func validateEvent(ev *domain.EventData) []string {
	if ev == nil || ev.StartsAt.IsZero() {
		return []string{"Events require a start time"}
	}
	if ev.EndsAt != nil && ev.EndsAt.Before(ev.StartsAt) {
		return []string{"Event end must be after start"}
	}
	return nil
}
