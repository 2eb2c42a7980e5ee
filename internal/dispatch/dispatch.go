// Package dispatch orchestrates delivery for resolved targets: per-target
// email and push delivery run concurrently, multi-target dispatch fans out
// with settle-all semantics, and batch dispatch chunks sequentially to
// rate-limit the external gateways.
package dispatch

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/coursehub/notify/internal/domain"
	"github.com/coursehub/notify/internal/gateway"
	"github.com/coursehub/notify/internal/ratelimiter"
	"github.com/coursehub/notify/internal/resolver"
)

// defaultSound is attached to every push message.
const defaultSound = "default"

// TokenSource finds the stored push token for an email address.
// An empty token with a nil error means the target has no token and push
// delivery is skipped. Implemented by resolver.TokenLookup.
type TokenSource interface {
	PushToken(ctx context.Context, email string) (string, error)
}

// Dispatcher delivers notifications to resolved targets over both channels.
type Dispatcher struct {
	resolver   *resolver.Resolver
	tokens     TokenSource
	push       gateway.PushSender
	email      gateway.EmailSender
	limiter    *ratelimiter.GatewayLimiters
	logger     *zap.Logger
	chunkSize  int
	chunkDelay time.Duration
}

func New(
	res *resolver.Resolver,
	tokens TokenSource,
	push gateway.PushSender,
	email gateway.EmailSender,
	limiter *ratelimiter.GatewayLimiters,
	logger *zap.Logger,
	chunkSize int,
	chunkDelay time.Duration,
) *Dispatcher {
	if chunkSize <= 0 {
		chunkSize = 100
	}
	return &Dispatcher{
		resolver:   res,
		tokens:     tokens,
		push:       push,
		email:      email,
		limiter:    limiter,
		logger:     logger,
		chunkSize:  chunkSize,
		chunkDelay: chunkDelay,
	}
}

// Notify delivers one notification to one recipient over both channels.
//
// Email delivery and push-token lookup start concurrently; email never waits
// on token resolution. A missing token records a push outcome of
// {success:false, "no-token"} without calling the gateway. The target counts
// as notified if EITHER channel succeeded: a stale push token must not turn
// into total failure while email still gets through.
//
// The returned error is non-nil only for a token-lookup datastore failure;
// channel-level delivery errors are swallowed into the outcome records.
func (d *Dispatcher) Notify(ctx context.Context, email, title, body string, data map[string]string) (domain.TargetResult, error) {
	emailCh := make(chan domain.DeliveryOutcome, 1)
	go func() {
		emailCh <- d.sendEmail(ctx, email, title, body)
	}()

	pushOut, tokenErr := d.sendPush(ctx, email, title, body, data)
	emailOut := <-emailCh

	res := domain.TargetResult{
		Recipient: email,
		Success:   pushOut.Success || emailOut.Success,
		Push:      pushOut,
		Email:     emailOut,
	}
	if tokenErr != nil {
		return res, tokenErr
	}
	return res, nil
}

func (d *Dispatcher) sendEmail(ctx context.Context, to, subject, message string) domain.DeliveryOutcome {
	out := domain.DeliveryOutcome{Channel: domain.ChannelEmail}

	if err := d.limiter.Wait(ctx, domain.ChannelEmail); err != nil {
		out.ErrorDetail = err.Error()
		return out
	}
	if err := d.email.Send(ctx, gateway.EmailMessage{To: to, Subject: subject, Message: message}); err != nil {
		d.logger.Warn("email delivery failed", zap.String("recipient", to), zap.Error(err))
		out.ErrorDetail = err.Error()
		return out
	}
	out.Success = true
	return out
}

// sendPush looks up the recipient's token and, if present, delivers one push
// message. The second return value is non-nil only for a datastore failure
// during token lookup.
func (d *Dispatcher) sendPush(ctx context.Context, email, title, body string, data map[string]string) (domain.DeliveryOutcome, error) {
	out := domain.DeliveryOutcome{Channel: domain.ChannelPush}

	token, err := d.tokens.PushToken(ctx, email)
	if err != nil {
		out.ErrorDetail = err.Error()
		return out, err
	}
	if token == "" {
		out.ErrorDetail = domain.NoTokenDetail
		return out, nil
	}

	if err := d.limiter.Wait(ctx, domain.ChannelPush); err != nil {
		out.ErrorDetail = err.Error()
		return out, nil
	}

	tickets, err := d.push.Send(ctx, []gateway.PushMessage{{
		To:    token,
		Sound: defaultSound,
		Title: title,
		Body:  body,
		Data:  data,
	}})
	if err != nil {
		d.logger.Warn("push delivery failed", zap.String("recipient", email), zap.Error(err))
		out.ErrorDetail = err.Error()
		return out, nil
	}
	if detail := tickets[0].Err(); detail != "" {
		out.ErrorDetail = detail
		return out, nil
	}
	out.Success = true
	return out, nil
}

// NotifyMany dispatches the same notification to every email concurrently
// and waits for all of them to settle. One target's failure never aborts its
// siblings: an error from Notify is downgraded to a failed result for that
// target only. Results preserve the input order.
//
// The input list is NOT deduplicated; duplicate addresses get duplicate
// notifications.
func (d *Dispatcher) NotifyMany(ctx context.Context, emails []string, title, body string, data map[string]string) domain.DispatchSummary {
	results := make([]domain.TargetResult, len(emails))

	var wg sync.WaitGroup
	for i, email := range emails {
		wg.Add(1)
		go func(i int, email string) {
			defer wg.Done()
			res, err := d.Notify(ctx, email, title, body, data)
			if err != nil {
				d.logger.Warn("target dispatch failed",
					zap.String("recipient", email), zap.Error(err))
				res = failedResult(email, err)
			}
			results[i] = res
		}(i, email)
	}
	wg.Wait()

	return domain.NewDispatchSummary(results)
}

// NotifyCourse resolves the course's enrolled students and dispatches to
// them. A course with no resolvable students yields the zero summary without
// touching the delivery clients. A resolver failure (datastore unreachable)
// propagates so the queue's retry policy applies.
func (d *Dispatcher) NotifyCourse(ctx context.Context, courseID, title, body string, data map[string]string) (domain.DispatchSummary, error) {
	emails, err := d.resolver.Resolve(ctx, domain.CourseTarget(courseID))
	if err != nil {
		return domain.DispatchSummary{}, err
	}
	if len(emails) == 0 {
		return emptySummary(), nil
	}
	return d.NotifyMany(ctx, emails, title, body, data), nil
}

// NotifyRole dispatches to every user of a role. Same empty-set
// short-circuit and error propagation as NotifyCourse.
func (d *Dispatcher) NotifyRole(ctx context.Context, role domain.Role, title, body string, data map[string]string) (domain.DispatchSummary, error) {
	emails, err := d.resolver.Resolve(ctx, domain.RoleTarget(role))
	if err != nil {
		return domain.DispatchSummary{}, err
	}
	if len(emails) == 0 {
		return emptySummary(), nil
	}
	return d.NotifyMany(ctx, emails, title, body, data), nil
}

// NotifyBatch dispatches per-item notifications in fixed-size chunks.
// Chunks run sequentially with a pause between them (rate limiting towards
// the gateways); items within a chunk run concurrently. The aggregate
// summary preserves the original item order.
func (d *Dispatcher) NotifyBatch(ctx context.Context, items []domain.BatchItem) domain.DispatchSummary {
	results := make([]domain.TargetResult, len(items))

	for start := 0; start < len(items); start += d.chunkSize {
		end := start + d.chunkSize
		if end > len(items) {
			end = len(items)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				item := items[i]
				res, err := d.Notify(ctx, item.Email, item.Title, item.Body, item.Data)
				if err != nil {
					d.logger.Warn("batch item dispatch failed",
						zap.String("recipient", item.Email), zap.Error(err))
					res = failedResult(item.Email, err)
				}
				results[i] = res
			}(i)
		}
		wg.Wait()

		// Pause before the next chunk, never after the last. A cancelled ctx
		// skips the pause; the remaining sends fail fast and are recorded.
		if end < len(items) {
			select {
			case <-time.After(d.chunkDelay):
			case <-ctx.Done():
			}
		}
	}

	return domain.NewDispatchSummary(results)
}

func failedResult(email string, err error) domain.TargetResult {
	return domain.TargetResult{
		Recipient: email,
		Success:   false,
		Push:      domain.DeliveryOutcome{Channel: domain.ChannelPush, ErrorDetail: err.Error()},
		Email:     domain.DeliveryOutcome{Channel: domain.ChannelEmail, ErrorDetail: err.Error()},
	}
}

func emptySummary() domain.DispatchSummary {
	return domain.DispatchSummary{Results: []domain.TargetResult{}}
}
