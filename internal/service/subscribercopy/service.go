package subscribercopy

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/pkg/distlock"
	"github.com/ignite/customer-console/internal/pkg/logger"
)

// Result values.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Request is one step of a copy.
type Request struct {
	FromListUID string                    `json:"from_list_uid" mapstructure:"from_list_uid"`
	Page        int                       `json:"page" mapstructure:"page"`
	Statuses    []domain.SubscriberStatus `json:"statuses" mapstructure:"statuses"`
}

// Result is the answer to one step. Copied is the running total since
// page 1 and BatchCopied the count of this step.
type Result struct {
	Result      string `json:"result"`
	Finished    bool   `json:"finished"`
	NextPage    int    `json:"next_page"`
	Total       int    `json:"total"`
	Processed   int    `json:"processed"`
	Copied      int    `json:"copied"`
	BatchCopied int    `json:"batch_copied"`
	Percentage  int    `json:"percentage"`
	Message     string `json:"message"`
}

// Service implements the subscriber copy tool.
type Service struct {
	repo      Repository
	quota     Quota
	locker    Locker
	progress  Progress
	batchSize int
}

// NewService creates a copy service copying batchSize subscribers per step.
func NewService(repo Repository, quota Quota, locker Locker, progress Progress, batchSize int) *Service {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Service{repo: repo, quota: quota, locker: locker, progress: progress, batchSize: batchSize}
}

// Step copies the window of the source list selected by req.Page into the
// target list.
func (s *Service) Step(ctx context.Context, customerID int64, targetUID string, req Request) (*Result, error) {
	target, err := s.repo.GetList(ctx, customerID, targetUID)
	if err != nil {
		return nil, err
	}
	source, err := s.repo.GetList(ctx, customerID, req.FromListUID)
	if err != nil {
		return nil, err
	}
	if source.ID == target.ID {
		return nil, ErrSameList
	}
	if req.Page < 1 {
		req.Page = 1
	}

	var res *Result
	err = s.locker.Do(ctx, "copy-subscribers:"+target.UID, func(ctx context.Context) error {
		var err error
		res, err = s.step(ctx, customerID, source, target, req)
		return err
	})
	if errors.Is(err, distlock.ErrBusy) {
		return nil, ErrBusy
	}
	return res, err
}

func (s *Service) step(ctx context.Context, customerID int64, source, target *domain.List, req Request) (*Result, error) {
	progressKey := source.UID + ":" + target.UID
	if req.Page == 1 {
		if err := s.progress.Reset(ctx, progressKey); err != nil {
			return nil, err
		}
	}

	total, err := s.repo.CountSubscribers(ctx, source.ID, req.Statuses)
	if err != nil {
		return nil, err
	}
	offset := (req.Page - 1) * s.batchSize
	res := &Result{Result: ResultSuccess, Total: total, NextPage: req.Page + 1}

	room, err := s.room(ctx, customerID, target.ID)
	if err != nil {
		return nil, err
	}
	if room == 0 {
		res.Finished = true
		res.Processed = min(offset, total)
		res.Percentage = percentage(res.Processed, total)
		res.Message = "Maximum number of allowed subscribers has been reached."
		return res, nil
	}

	var window, copied int
	err = s.repo.WithTx(ctx, func(tx Tx) error {
		subs, err := tx.Subscribers(ctx, source.ID, req.Statuses, offset, s.batchSize)
		if err != nil {
			return err
		}
		window = len(subs)
		if window == 0 {
			return nil
		}
		emails := make([]string, len(subs))
		for i, sub := range subs {
			emails[i] = sub.Email
		}
		existing, err := tx.ExistingEmails(ctx, target.ID, emails)
		if err != nil {
			return err
		}
		fieldIDs, err := tx.FieldIDs(ctx, target.ID)
		if err != nil {
			return err
		}
		for i := range subs {
			if room >= 0 && copied >= room {
				break
			}
			if existing[subs[i].Email] {
				continue
			}
			sub := subs[i]
			sub.ID = 0
			sub.UID = uuid.NewString()
			sub.ListID = target.ID
			if err := tx.InsertSubscriber(ctx, &sub, fieldIDs); err != nil {
				return fmt.Errorf("copy %s: %w", logger.RedactEmail(sub.Email), err)
			}
			existing[sub.Email] = true
			copied++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res.BatchCopied = copied
	res.Copied, err = s.progress.Add(ctx, progressKey, copied)
	if err != nil {
		return nil, err
	}
	res.Processed = min(offset+window, total)
	res.Percentage = percentage(res.Processed, total)
	res.Finished = window == 0 || offset+window >= total
	res.Message = fmt.Sprintf("Processed %d of %d subscribers, %d copied so far.", res.Processed, total, res.Copied)
	if room >= 0 && copied >= room {
		res.Finished = true
		res.Message = "Maximum number of allowed subscribers has been reached."
	}
	if res.Finished {
		logger.Info("subscriber copy finished", "from", source.UID, "to", target.UID, "copied", res.Copied, "total", total)
	}
	return res, nil
}

// room returns how many subscribers the target can still take, or -1 when
// neither limit applies.
func (s *Service) room(ctx context.Context, customerID, targetID int64) (int, error) {
	room := domain.Unlimited

	maxTotal, err := s.quota.Limit(ctx, customerID, domain.QuotaSubscribers)
	if err != nil {
		return 0, err
	}
	if maxTotal != domain.Unlimited {
		current, err := s.repo.CountCustomerSubscribers(ctx, customerID)
		if err != nil {
			return 0, err
		}
		room = max(maxTotal-current, 0)
	}

	maxPerList, err := s.quota.Limit(ctx, customerID, domain.QuotaSubscribersPerList)
	if err != nil {
		return 0, err
	}
	if maxPerList != domain.Unlimited {
		current, err := s.repo.CountSubscribers(ctx, targetID, nil)
		if err != nil {
			return 0, err
		}
		left := max(maxPerList-current, 0)
		if room == domain.Unlimited || left < room {
			room = left
		}
	}
	return room, nil
}

func percentage(processed, total int) int {
	if total == 0 {
		return 100
	}
	return min(processed*100/total, 100)
}
