package listpage

import "github.com/ignite/customer-console/internal/domain"

// Page type slugs.
const (
	SubscribeForm      = "subscribe-form"
	SubscribePending   = "subscribe-pending"
	SubscribeConfirm   = "subscribe-confirm"
	UpdateProfile      = "update-profile"
	UnsubscribeForm    = "unsubscribe-form"
	UnsubscribeConfirm = "unsubscribe-confirm"
)

var pageTypes = []domain.ListPageType{
	{
		Slug:        SubscribeForm,
		Name:        "Subscribe form",
		Description: "The form visitors fill in to join the list.",
		Required:    []string{"list_fields", "submit_button"},
		DefaultContent: `<div class="list-page subscribe-form">
  <h1>{{ list_display_name }}</h1>
  <p>{{ list_description }}</p>
  <form method="post" action="{{ subscribe_url }}">
    {{ list_fields }}
    {{ submit_button }}
  </form>
</div>`,
	},
	{
		Slug:        SubscribePending,
		Name:        "Subscribe pending",
		Description: "Shown after subscribing while the address is unconfirmed.",
		DefaultContent: `<div class="list-page subscribe-pending">
  <h1>{{ list_display_name }}</h1>
  <p>Please check your inbox and confirm your subscription.</p>
</div>`,
	},
	{
		Slug:        SubscribeConfirm,
		Name:        "Subscribe confirm",
		Description: "Shown when the subscription is confirmed.",
		DefaultContent: `<div class="list-page subscribe-confirm">
  <h1>{{ list_display_name }}</h1>
  <p>Your subscription is confirmed. Thank you!</p>
</div>`,
	},
	{
		Slug:        UpdateProfile,
		Name:        "Update profile",
		Description: "Lets subscribers edit their details.",
		Required:    []string{"list_fields", "submit_button"},
		DefaultContent: `<div class="list-page update-profile">
  <h1>{{ list_display_name }}</h1>
  <form method="post">
    {{ list_fields }}
    {{ submit_button }}
  </form>
</div>`,
	},
	{
		Slug:        UnsubscribeForm,
		Name:        "Unsubscribe form",
		Description: "The form subscribers use to leave the list.",
		Required:    []string{"unsubscribe_email_field", "submit_button"},
		DefaultContent: `<div class="list-page unsubscribe-form">
  <h1>{{ list_display_name }}</h1>
  <form method="post" action="{{ unsubscribe_url }}">
    {{ unsubscribe_email_field }}
    {{ submit_button }}
  </form>
</div>`,
	},
	{
		Slug:        UnsubscribeConfirm,
		Name:        "Unsubscribe confirm",
		Description: "Shown after unsubscribing.",
		DefaultContent: `<div class="list-page unsubscribe-confirm">
  <h1>{{ list_display_name }}</h1>
  <p>You have been unsubscribed.</p>
</div>`,
	},
}

// Types returns every page type in display order.
func Types() []domain.ListPageType {
	return append([]domain.ListPageType(nil), pageTypes...)
}

// TypeBySlug returns the page type for slug.
func TypeBySlug(slug string) (domain.ListPageType, bool) {
	for _, t := range pageTypes {
		if t.Slug == slug {
			return t, true
		}
	}
	return domain.ListPageType{}, false
}
