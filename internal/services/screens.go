package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/barangay-portal/resident-gateway/internal/backend"
	"github.com/barangay-portal/resident-gateway/internal/logger"
	"github.com/barangay-portal/resident-gateway/internal/metrics"
	"github.com/barangay-portal/resident-gateway/internal/models"
)

const (
	recentRequestsLimit = 5
	announcementsLimit  = 3
)

// Section names used as keys of per-screen error maps.
const (
	SectionProfile       = "profile"
	SectionPayments      = "payments"
	SectionTransactions  = "transactions"
	SectionRequests      = "requests"
	SectionBlockchain    = "blockchain"
	SectionAnnouncements = "announcements"
)

// Dashboard is the resident's landing screen.
type Dashboard struct {
	Profile        models.ProfileSnapshot      `json:"profile"`
	PaymentStatus  models.PaymentStatusGate    `json:"paymentStatus"`
	Utilities      models.UtilitySummary       `json:"utilities"`
	RecentRequests []models.DocumentRequestRow `json:"recentRequests"`
	Blockchain     models.BlockchainTotals     `json:"blockchain"`
	Announcements  []models.Announcement       `json:"announcements"`
	Errors         map[string]string           `json:"errors,omitempty"`
}

// PaymentsPage is the utility payments screen.
type PaymentsPage struct {
	Records      []models.PaymentView    `json:"records"`
	Summaries    []models.TypeSummary    `json:"summaries"`
	Utilities    models.UtilitySummary   `json:"utilities"`
	Transactions []models.TransactionRow `json:"transactions"`
	Errors       map[string]string       `json:"errors,omitempty"`
}

// DocumentRequestsPage is the document request screen.
type DocumentRequestsPage struct {
	Requests      []models.DocumentRequestRow  `json:"requests"`
	PaymentStatus models.PaymentStatusGate     `json:"paymentStatus"`
	VerifiedPaid  []models.PaymentView         `json:"verifiedPaid"`
	DocumentTypes []models.DocumentType        `json:"documentTypes"`
	Draft         *models.DocumentRequestDraft `json:"draft,omitempty"`
	Errors        map[string]string            `json:"errors,omitempty"`
}

// ScreenService assembles screens from several backend calls.
type ScreenService struct {
	client        *backend.Client
	store         SessionStore
	announcements *AnnouncementService
	catalog       []models.DocumentType
	loc           *time.Location
	timeout       time.Duration
	now           func() time.Time
}

func NewScreenService(client *backend.Client, store SessionStore, announcements *AnnouncementService, catalog []models.DocumentType, loc *time.Location, timeout time.Duration) *ScreenService {
	if loc == nil {
		loc = time.Local
	}
	return &ScreenService{
		client:        client,
		store:         store,
		announcements: announcements,
		catalog:       catalog,
		loc:           loc,
		timeout:       timeout,
		now:           time.Now,
	}
}

func (s *ScreenService) today() time.Time {
	return s.now().In(s.loc)
}

func (s *ScreenService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// sectionErrors collects per-section failures from concurrent branches.
type sectionErrors struct {
	mu   sync.Mutex
	errs map[string]string
}

// guard records a branch failure and swallows it, except for auth failures
// which abort the whole screen.
func (e *sectionErrors) guard(section string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, backend.ErrUnauthorized) {
		return err
	}
	logger.L.Warn("screen section failed", "section", section, "err", err)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.errs == nil {
		e.errs = map[string]string{}
	}
	e.errs[section] = sectionMessage(section)
	return nil
}

func (e *sectionErrors) result() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errs
}

func sectionMessage(section string) string {
	switch section {
	case SectionProfile:
		return "Unable to load your profile."
	case SectionPayments:
		return "Unable to load utility payments."
	case SectionTransactions:
		return "Unable to load financial transactions."
	case SectionRequests:
		return "Unable to load document requests."
	case SectionBlockchain:
		return "Unable to reach the blockchain service."
	case SectionAnnouncements:
		return "Unable to load announcements."
	default:
		return "Unable to load this section."
	}
}

// finish waits for the branches and maps cancellation and auth failures to
// screen errors.
func finish(ctx context.Context, g *errgroup.Group) error {
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// fetchProfileAndPayments resolves the profile first and then fetches the
// resident's utility payments with the resolved id. A failed profile fetch
// falls back to the id carried by the token.
func (s *ScreenService) fetchProfileAndPayments(ctx context.Context, token, residentID string, errs *sectionErrors) (*models.ResidentProfile, json.RawMessage, error) {
	var profile *models.ResidentProfile
	p, err := s.client.GetProfile(ctx, token)
	if err := errs.guard(SectionProfile, err); err != nil {
		return nil, nil, err
	}
	if err == nil {
		profile = &p
		if id := p.Key(); id != "" {
			residentID = id
		}
	}

	raw, err := s.client.GetPayments(ctx, token, residentID)
	if err := errs.guard(SectionPayments, err); err != nil {
		return nil, nil, err
	}
	return profile, raw, nil
}

// buildViews runs the reconciliation pipeline for one screen.
func (s *ScreenService) buildViews(raw json.RawMessage, txns []models.FinancialTransaction) []models.PaymentView {
	records := BuildRecords(NormalizePayments(raw), s.today())
	views := MarkVerified(records, txns, s.loc)
	verified := 0
	for _, v := range views {
		metrics.ObservePaymentRecord(string(v.Status))
		if v.VerifiedPaid {
			verified++
		}
	}
	metrics.ObserveVerifiedPaid(verified)
	SortPaymentViews(views)
	return views
}

func (s *ScreenService) saveProfile(ctx context.Context, session *models.Session, profile *models.ResidentProfile) {
	if profile == nil {
		return
	}
	session.Profile = SnapshotProfile(*profile)
	if err := s.store.Save(ctx, session); err != nil {
		logger.L.Warn("session profile refresh failed", "resident_id", session.ResidentID, "err", err)
	}
}

// Dashboard builds the landing screen.
func (s *ScreenService) Dashboard(ctx context.Context, token, residentID string) (*Dashboard, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	session := loadSession(ctx, s.store, residentID)
	out := &Dashboard{
		Profile:        session.Profile,
		PaymentStatus:  models.PermissiveGate(),
		RecentRequests: []models.DocumentRequestRow{},
		Announcements:  []models.Announcement{},
	}

	var (
		errs       sectionErrors
		profile    *models.ResidentProfile
		payments   json.RawMessage
		txns       []models.FinancialTransaction
		requests   []models.DocumentRequest
		chainReqs  []models.BlockchainRequest
		gate       models.PaymentStatusGate
		gateLoaded bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, payments, err = s.fetchProfileAndPayments(gctx, token, residentID, &errs)
		return err
	})
	g.Go(func() error {
		var err error
		gate, err = resolveGate(gctx, s.client, token)
		if errors.Is(err, backend.ErrUnauthorized) {
			return err
		}
		gateLoaded = err == nil
		return nil
	})
	g.Go(func() error {
		status, err := s.client.GetBlockchainStatus(gctx, token)
		if err == nil {
			out.Blockchain.Status = &status
		}
		return errs.guard(SectionBlockchain, err)
	})
	g.Go(func() error {
		var err error
		chainReqs, err = s.client.ListMyBlockchainRequests(gctx, token)
		return errs.guard(SectionBlockchain, err)
	})
	g.Go(func() error {
		var err error
		txns, err = s.client.ListMyFinancialTransactions(gctx, token)
		return errs.guard(SectionTransactions, err)
	})
	g.Go(func() error {
		var err error
		requests, err = s.client.ListDocumentRequests(gctx, token)
		return errs.guard(SectionRequests, err)
	})
	g.Go(func() error {
		if s.announcements == nil {
			return nil
		}
		latest, err := s.announcements.Latest(gctx, token, announcementsLimit)
		if err == nil {
			out.Announcements = latest
		}
		return errs.guard(SectionAnnouncements, err)
	})
	if err := finish(ctx, g); err != nil {
		return nil, err
	}

	if gateLoaded {
		out.PaymentStatus = gate
	}
	if profile != nil {
		s.saveProfile(ctx, session, profile)
		out.Profile = session.Profile
	}

	out.Utilities = SummarizeUtilities(s.buildViews(payments, txns))
	rows := BuildRequestRows(requests, chainReqs, s.loc)
	if len(rows) > recentRequestsLimit {
		rows = rows[:recentRequestsLimit]
	}
	out.RecentRequests = rows
	out.Blockchain.Requests = len(chainReqs)
	out.Blockchain.Transactions = len(txns)
	out.Errors = errs.result()
	return out, nil
}

// Payments builds the utility payments screen. search filters both the
// payments table and the transactions table.
func (s *ScreenService) Payments(ctx context.Context, token, residentID string, filter PaymentFilter) (*PaymentsPage, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	session := loadSession(ctx, s.store, residentID)

	var (
		errs     sectionErrors
		profile  *models.ResidentProfile
		payments json.RawMessage
		txns     []models.FinancialTransaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, payments, err = s.fetchProfileAndPayments(gctx, token, residentID, &errs)
		return err
	})
	g.Go(func() error {
		var err error
		txns, err = s.client.ListMyFinancialTransactions(gctx, token)
		return errs.guard(SectionTransactions, err)
	})
	if err := finish(ctx, g); err != nil {
		return nil, err
	}
	s.saveProfile(ctx, session, profile)

	views := s.buildViews(payments, txns)
	return &PaymentsPage{
		Records:      FilterPaymentViews(views, filter),
		Summaries:    SummarizeByType(views),
		Utilities:    SummarizeUtilities(views),
		Transactions: FilterTransactionRows(BuildTransactionRows(txns, s.loc), filter.Search),
		Errors:       errs.result(),
	}, nil
}

// TransactionRows returns the searched transaction table for export.
func (s *ScreenService) TransactionRows(ctx context.Context, token, search string) ([]models.TransactionRow, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	txns, err := s.client.ListMyFinancialTransactions(ctx, token)
	if err != nil {
		return nil, err
	}
	return FilterTransactionRows(BuildTransactionRows(txns, s.loc), search), nil
}

// RequestRows returns the filtered requests table, with on-chain flags.
// Ledger failures only drop the flags.
func (s *ScreenService) RequestRows(ctx context.Context, token, status, search string) ([]models.DocumentRequestRow, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		errs      sectionErrors
		requests  []models.DocumentRequest
		chainReqs []models.BlockchainRequest
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		requests, err = s.client.ListDocumentRequests(gctx, token)
		return err
	})
	g.Go(func() error {
		var err error
		chainReqs, err = s.client.ListBlockchainRequests(gctx, token)
		return errs.guard(SectionBlockchain, err)
	})
	if err := finish(ctx, g); err != nil {
		return nil, err
	}
	return FilterRequestRows(BuildRequestRows(requests, chainReqs, s.loc), status, search), nil
}

// DocumentRequests builds the document request screen.
func (s *ScreenService) DocumentRequests(ctx context.Context, token, residentID, status, search string) (*DocumentRequestsPage, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	session := loadSession(ctx, s.store, residentID)
	out := &DocumentRequestsPage{
		PaymentStatus: models.PermissiveGate(),
		DocumentTypes: s.catalog,
		Draft:         session.Draft,
	}

	var (
		errs      sectionErrors
		gate      models.PaymentStatusGate
		requests  []models.DocumentRequest
		chainReqs []models.BlockchainRequest
		profile   *models.ResidentProfile
		payments  json.RawMessage
		txns      []models.FinancialTransaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		gate, err = resolveGate(gctx, s.client, token)
		if errors.Is(err, backend.ErrUnauthorized) {
			return err
		}
		if err == nil {
			out.PaymentStatus = gate
		}
		return nil
	})
	g.Go(func() error {
		var err error
		requests, err = s.client.ListDocumentRequests(gctx, token)
		return errs.guard(SectionRequests, err)
	})
	g.Go(func() error {
		var err error
		chainReqs, err = s.client.ListBlockchainRequests(gctx, token)
		return errs.guard(SectionBlockchain, err)
	})
	g.Go(func() error {
		var err error
		profile, payments, err = s.fetchProfileAndPayments(gctx, token, residentID, &errs)
		return err
	})
	g.Go(func() error {
		var err error
		txns, err = s.client.ListMyFinancialTransactions(gctx, token)
		return errs.guard(SectionTransactions, err)
	})
	if err := finish(ctx, g); err != nil {
		return nil, err
	}
	s.saveProfile(ctx, session, profile)

	out.Requests = FilterRequestRows(BuildRequestRows(requests, chainReqs, s.loc), status, search)
	out.VerifiedPaid = []models.PaymentView{}
	for _, v := range s.buildViews(payments, txns) {
		if v.VerifiedPaid {
			out.VerifiedPaid = append(out.VerifiedPaid, v)
		}
	}
	out.Errors = errs.result()
	return out, nil
}
