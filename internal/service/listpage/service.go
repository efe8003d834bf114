package listpage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ignite/customer-console/internal/domain"
)

// Service implements list page business logic.
type Service struct {
	lists     Lists
	repo      Repository
	renderer  *Renderer
	publicURL string
}

// NewService creates a list page service. publicURL is the base of the
// public subscribe and unsubscribe endpoints.
func NewService(lists Lists, repo Repository, renderer *Renderer, publicURL string) *Service {
	return &Service{lists: lists, repo: repo, renderer: renderer, publicURL: strings.TrimRight(publicURL, "/")}
}

// Input carries the posted page attributes.
type Input struct {
	Content string `json:"content" mapstructure:"content"`
}

// Forms holds embeddable HTML for a list.
type Forms struct {
	Subscribe   string `json:"subscribe"`
	Unsubscribe string `json:"unsubscribe"`
}

// Pages returns every page type of a list with its effective content.
func (s *Service) Pages(ctx context.Context, customerID int64, listUID string) ([]domain.ListPage, error) {
	l, err := s.lists.GetList(ctx, customerID, listUID)
	if err != nil {
		return nil, err
	}
	stored, err := s.repo.Pages(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	custom := make(map[string]domain.ListPage, len(stored))
	for _, p := range stored {
		custom[p.Type] = p
	}

	out := make([]domain.ListPage, 0, len(pageTypes))
	for _, t := range pageTypes {
		p, ok := custom[t.Slug]
		if ok {
			p.Custom = true
		} else {
			p = domain.ListPage{ListID: l.ID, Type: t.Slug, Content: t.DefaultContent}
		}
		p.Name = t.Name
		out = append(out, p)
	}
	return out, nil
}

// Page returns one page type of a list with its effective content.
func (s *Service) Page(ctx context.Context, customerID int64, listUID, pageType string) (*domain.ListPage, domain.ListPageType, error) {
	t, ok := TypeBySlug(pageType)
	if !ok {
		return nil, t, ErrUnknownType
	}
	l, err := s.lists.GetList(ctx, customerID, listUID)
	if err != nil {
		return nil, t, err
	}
	p, err := s.page(ctx, l.ID, t)
	return p, t, err
}

func (s *Service) page(ctx context.Context, listID int64, t domain.ListPageType) (*domain.ListPage, error) {
	p, err := s.repo.Page(ctx, listID, t.Slug)
	switch {
	case err == nil:
		p.Custom = true
	case errors.Is(err, ErrNotFound):
		p = &domain.ListPage{ListID: listID, Type: t.Slug, Content: t.DefaultContent}
	default:
		return nil, err
	}
	p.Name = t.Name
	return p, nil
}

// Update saves custom content for a page type. Empty content reverts the
// type to its default.
func (s *Service) Update(ctx context.Context, customerID int64, listUID, pageType string, in Input) (*domain.ListPage, error) {
	t, ok := TypeBySlug(pageType)
	if !ok {
		return nil, ErrUnknownType
	}
	l, err := s.lists.GetList(ctx, customerID, listUID)
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(in.Content)
	if content == "" {
		if err := s.repo.DeletePage(ctx, l.ID, t.Slug); err != nil {
			return nil, err
		}
		return &domain.ListPage{ListID: l.ID, Type: t.Slug, Name: t.Name, Content: t.DefaultContent}, nil
	}

	p := &domain.ListPage{ListID: l.ID, Type: t.Slug, Name: t.Name, Content: content, Custom: true}
	v := &domain.ValidationError{}
	if err := s.renderer.Parse(content); err != nil {
		v.Add("content", "The content is not a valid template: "+err.Error())
		return p, v
	}
	for _, tag := range MissingTags(content, t.Required) {
		v.Add("content", fmt.Sprintf("The content must contain the {{ %s }} tag.", tag))
	}
	if err := v.Err(); err != nil {
		return p, err
	}
	if err := s.repo.SavePage(ctx, p); err != nil {
		return p, err
	}
	return p, nil
}

// Preview renders a page type with the list's data. Non-empty content is
// rendered in place of the stored content.
func (s *Service) Preview(ctx context.Context, customerID int64, listUID, pageType, content string) (string, error) {
	t, ok := TypeBySlug(pageType)
	if !ok {
		return "", ErrUnknownType
	}
	l, err := s.lists.GetList(ctx, customerID, listUID)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		p, err := s.page(ctx, l.ID, t)
		if err != nil {
			return "", err
		}
		content = p.Content
	}
	vars, err := s.vars(ctx, l)
	if err != nil {
		return "", err
	}
	out, err := s.renderer.Render(content, vars)
	if err != nil {
		v := &domain.ValidationError{}
		v.Add("content", "The content is not a valid template: "+err.Error())
		return "", v
	}
	return out, nil
}

// Forms returns embeddable subscribe and unsubscribe forms for a list.
func (s *Service) Forms(ctx context.Context, customerID int64, listUID string) (*Forms, error) {
	l, err := s.lists.GetList(ctx, customerID, listUID)
	if err != nil {
		return nil, err
	}
	fields, err := s.lists.Fields(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	return &Forms{
		Subscribe: fmt.Sprintf("<form method=\"post\" action=\"%s\">\n%s%s\n</form>",
			s.subscribeURL(l), fieldsHTML(fields), submitHTML("Subscribe")),
		Unsubscribe: fmt.Sprintf("<form method=\"post\" action=\"%s\">\n%s\n%s\n</form>",
			s.unsubscribeURL(l), emailFieldHTML(), submitHTML("Unsubscribe")),
	}, nil
}

func (s *Service) subscribeURL(l *domain.List) string {
	return s.publicURL + "/lists/" + l.UID + "/subscribe"
}

func (s *Service) unsubscribeURL(l *domain.List) string {
	return s.publicURL + "/lists/" + l.UID + "/unsubscribe"
}

func (s *Service) vars(ctx context.Context, l *domain.List) (map[string]interface{}, error) {
	fields, err := s.lists.Fields(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	display := l.DisplayName
	if display == "" {
		display = l.Name
	}
	return map[string]interface{}{
		"list_uid":                l.UID,
		"list_name":               l.Name,
		"list_display_name":       display,
		"list_description":        l.Description,
		"list_fields":             fieldsHTML(fields),
		"unsubscribe_email_field": emailFieldHTML(),
		"submit_button":           submitHTML("Submit"),
		"subscribe_url":           s.subscribeURL(l),
		"unsubscribe_url":         s.unsubscribeURL(l),
	}, nil
}
