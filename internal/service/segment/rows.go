package segment

import "github.com/ignite/customer-console/internal/domain"

// SubscriberRow is a subscriber exported with the list's field columns.
type SubscriberRow struct {
	Tags       []string
	Subscriber domain.Subscriber
}

func (r SubscriberRow) CSVHeader() []string {
	h := []string{"Subscriber UID", "Email"}
	for _, t := range r.Tags {
		if t != "EMAIL" {
			h = append(h, t)
		}
	}
	return append(h, "Status", "Source", "IP Address", "Date Added")
}

func (r SubscriberRow) CSVRecord() []string {
	s := r.Subscriber
	rec := []string{s.UID, s.Email}
	for _, t := range r.Tags {
		if t != "EMAIL" {
			rec = append(rec, s.Fields[t])
		}
	}
	return append(rec, string(s.Status), string(s.Source), s.IPAddress, s.DateAdded.Format(domain.CSVDate))
}

// ResponderRow is a survey responder exported with the survey's field columns.
type ResponderRow struct {
	Tags      []string
	Responder domain.SurveyResponder
}

func (r ResponderRow) CSVHeader() []string {
	h := []string{"Responder UID"}
	h = append(h, r.Tags...)
	return append(h, "IP Address", "Date Added")
}

func (r ResponderRow) CSVRecord() []string {
	rec := []string{r.Responder.UID}
	for _, t := range r.Tags {
		rec = append(rec, r.Responder.Fields[t])
	}
	return append(rec, r.Responder.IPAddress, r.Responder.DateAdded.Format(domain.CSVDate))
}
