package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/tdambrin/sf-push/domain"
	"github.com/tdambrin/sf-push/snowsight"
)

// Driver pushes worksheets to every configured account.
type Driver struct {
	auth        snowsight.Authenticator
	uploader    snowsight.Uploader
	mode        domain.AuthMode
	concurrency int
	failFast    bool
	logger      *zap.Logger
}

// New creates a Driver using auth to open sessions and up to write worksheets.
func New(auth snowsight.Authenticator, up snowsight.Uploader, opts ...Option) *Driver {
	d := &Driver{
		auth:        auth,
		uploader:    up,
		mode:        domain.AuthModePassword,
		concurrency: DefaultConcurrency,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// task is one account's authenticate+upload unit and the slot it reports to.
type task struct {
	index   int
	account domain.SyncAccount
}

// outcome is the filled slot of a task. done is false for tasks that never
// ran because the run was aborted.
type outcome struct {
	result domain.AccountResult
	done   bool
}

// Sync authenticates against each account and uploads the full worksheet
// set, returning one report entry per processed account keyed account_<index>.
//
// Authentication and upload failures are recorded as FAILED entries. With
// WithFailFast an authentication failure aborts the run: Sync returns the
// report of the accounts that finished together with the error. A cancelled
// ctx also aborts the run.
func (d *Driver) Sync(
	ctx context.Context,
	accounts []domain.SyncAccount,
	worksheets []domain.Worksheet,
) (domain.UploadReport, error) {
	tasks := make([]task, len(accounts))
	for i, acc := range accounts {
		tasks[i] = task{index: i, account: acc}
	}

	d.logger.Info("uploading worksheets",
		zap.Int("accounts", len(tasks)),
		zap.Int("worksheets", len(worksheets)),
		zap.Int("concurrency", d.concurrency),
	)

	slots := make([]outcome, len(tasks))
	err := d.run(ctx, tasks, func(ctx context.Context, t task) error {
		res, err := d.syncAccount(ctx, t, worksheets)
		slots[t.index] = outcome{result: res, done: true}
		return err
	})

	report := make(domain.UploadReport, len(tasks))
	for i, slot := range slots {
		if slot.done {
			report[domain.AccountLabel(i)] = slot.result
		}
	}

	d.logger.Info("upload complete",
		zap.Int("accounts", len(report)),
		zap.Int("failed", report.Failed()),
	)
	return report, err
}

// syncAccount runs one task. The returned error is non-nil only when the
// failure must abort the run.
func (d *Driver) syncAccount(
	ctx context.Context,
	t task,
	worksheets []domain.Worksheet,
) (domain.AccountResult, error) {
	log := d.logger.With(zap.String("label", domain.AccountLabel(t.index)), zap.Stringer("account", t.account))
	res := domain.AccountResult{Account: t.account.Account, Status: domain.AccountStatusFailed}

	session, err := d.auth.Authenticate(ctx, t.account, d.mode)
	if err != nil {
		log.Error("authentication failed", zap.Error(err))
		res.Error = err.Error()
		if d.failFast && errors.Is(err, snowsight.ErrAuthentication) {
			return res, fmt.Errorf("account %s: %w", domain.AccountLabel(t.index), err)
		}
		return res, nil
	}

	summary, err := d.uploader.Upload(ctx, session, worksheets)
	if summary == nil {
		summary = &domain.UploadSummary{}
	}
	res.Summary = summary
	if err != nil {
		log.Error("upload failed", zap.Error(err))
		res.Error = err.Error()
		return res, nil
	}

	log.Info("account synced", zap.Int("uploaded", summary.Uploaded), zap.Int("failed", len(summary.Failed)))
	res.Status = domain.AccountStatusSuccess
	return res, nil
}

// run executes fn for every task with at most d.concurrency in flight.
// The first error cancels the tasks not yet started and is returned.
func (d *Driver) run(parent context.Context, tasks []task, fn func(context.Context, task) error) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	setErr := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	semaphore := make(chan struct{}, d.concurrency)

	for _, t := range tasks {
		select {
		case semaphore <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(t task) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := fn(ctx, t); err != nil {
				setErr(err)
			}
		}(t)
	}

	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if firstErr != nil {
		return firstErr
	}
	if err := parent.Err(); err != nil {
		return fmt.Errorf("sync cancelled: %w", err)
	}
	return nil
}
