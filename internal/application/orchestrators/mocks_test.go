package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	emailAdapter "saepe/internal/adapters/email"
	indicatorStore "saepe/internal/adapters/storage/indicator"
	techvisitStore "saepe/internal/adapters/storage/techvisit"
	"saepe/internal/domain/account"
	"saepe/internal/domain/indicator"
	"saepe/internal/domain/occurrence"
	"saepe/internal/domain/report"
	"saepe/internal/domain/school"
	"saepe/internal/domain/techvisit"
	"saepe/internal/domain/visit"
)

var errNotFound = errors.New("not found")

var fixedTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

func fixedID() string { return "test-id-001" }

// seqIDs returns a generator yielding id-1, id-2, ...
func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// mockAccountStore implements the account store interfaces for testing.
type mockAccountStore struct {
	accounts  map[string]account.Account
	saveErr   error
	lookupErr error
	saves     int
}

func newMockAccountStore(accts ...account.Account) *mockAccountStore {
	m := &mockAccountStore{accounts: make(map[string]account.Account)}
	for _, a := range accts {
		m.accounts[a.ID] = a
	}
	return m
}

// GetByEmail implements AccountStoreForRegister.
// PRE: email is non-empty
// POST: returns the account with a case-insensitively equal email or account.ErrNotFound
func (m *mockAccountStore) GetByEmail(_ context.Context, email string) (account.Account, error) {
	if m.lookupErr != nil {
		return account.Account{}, m.lookupErr
	}
	for _, a := range m.accounts {
		if strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

// GetByUsername implements AccountStoreForRegister and AccountStoreForLogin.
// PRE: username is non-empty
// POST: returns the matching account or account.ErrNotFound
func (m *mockAccountStore) GetByUsername(_ context.Context, username string) (account.Account, error) {
	if m.lookupErr != nil {
		return account.Account{}, m.lookupErr
	}
	for _, a := range m.accounts {
		if a.Username == username {
			return a, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

// Save implements the account store interfaces.
// PRE: a has an ID
// POST: a is stored unless saveErr is set
func (m *mockAccountStore) Save(_ context.Context, a account.Account) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	for id, other := range m.accounts {
		if id == a.ID {
			continue
		}
		if other.Username == a.Username {
			return account.ErrUsernameInUse
		}
		if strings.EqualFold(other.Email, a.Email) {
			return account.ErrEmailInUse
		}
	}
	m.saves++
	m.accounts[a.ID] = a
	return nil
}

// Count implements AccountStoreForSeed.
func (m *mockAccountStore) Count(_ context.Context) (int, error) {
	return len(m.accounts), nil
}

// CountByRole implements AccountStoreForSeed.
func (m *mockAccountStore) CountByRole(_ context.Context, role string) (int, error) {
	n := 0
	for _, a := range m.accounts {
		if a.Role == role {
			n++
		}
	}
	return n, nil
}

// mockMailer implements emailAdapter.Sender and records requests.
type mockMailer struct {
	sent []emailAdapter.Message
	err  error
}

// Send implements emailAdapter.Sender.
// POST: msg recorded; returns err when set
func (m *mockMailer) Send(_ context.Context, msg emailAdapter.Message) (emailAdapter.Receipt, error) {
	m.sent = append(m.sent, msg)
	if m.err != nil {
		return emailAdapter.Receipt{}, m.err
	}
	return emailAdapter.Receipt{ID: "mock", Provider: "mock", AcceptedAt: fixedTime}, nil
}

// mockSchoolStore implements SchoolLookup and SchoolStoreForCreate.
type mockSchoolStore struct {
	schools map[string]school.School
}

func newMockSchoolStore(schools ...school.School) *mockSchoolStore {
	m := &mockSchoolStore{schools: make(map[string]school.School)}
	for _, s := range schools {
		m.schools[s.ID] = s
	}
	return m
}

// GetByID implements SchoolLookup.
func (m *mockSchoolStore) GetByID(_ context.Context, id string) (school.School, error) {
	s, ok := m.schools[id]
	if !ok {
		return school.School{}, errNotFound
	}
	return s, nil
}

// Save implements SchoolStoreForCreate.
func (m *mockSchoolStore) Save(_ context.Context, s school.School) error {
	m.schools[s.ID] = s
	return nil
}

// mockVisitStore implements VisitStoreForCreate.
type mockVisitStore struct {
	created []visit.Visit
}

// Create implements VisitStoreForCreate.
func (m *mockVisitStore) Create(_ context.Context, v visit.Visit) error {
	m.created = append(m.created, v)
	return nil
}

// mockOccurrenceStore implements OccurrenceLister and OccurrenceStoreForSeed.
type mockOccurrenceStore struct {
	items []occurrence.Occurrence
}

// List implements OccurrenceLister.
func (m *mockOccurrenceStore) List(_ context.Context) ([]occurrence.Occurrence, error) {
	return m.items, nil
}

// Save implements OccurrenceStoreForSeed.
func (m *mockOccurrenceStore) Save(_ context.Context, o occurrence.Occurrence) error {
	m.items = append(m.items, o)
	return nil
}

// ExistsByDescription implements OccurrenceStoreForSeed.
func (m *mockOccurrenceStore) ExistsByDescription(_ context.Context, d string) (bool, error) {
	for _, o := range m.items {
		if o.Description == d {
			return true, nil
		}
	}
	return false, nil
}

// mockReportStore implements ReportStoreForCreate.
type mockReportStore struct {
	created []report.Report
}

// Create implements ReportStoreForCreate.
func (m *mockReportStore) Create(_ context.Context, r report.Report) error {
	m.created = append(m.created, r)
	return nil
}

// mockTechVisitStore implements the technical visit store interfaces.
// ReplaceImported mirrors the SQLite store: imported rows are replaced, form rows kept.
type mockTechVisitStore struct {
	rows    []techvisit.TechnicalVisit
	failIDs map[string]bool
}

// Create implements TechnicalVisitStoreForCreate.
func (m *mockTechVisitStore) Create(_ context.Context, v techvisit.TechnicalVisit) error {
	m.rows = append(m.rows, v)
	return nil
}

// ReplaceImported implements TechnicalVisitStoreForImport.
// POST: previous import rows dropped; rows whose ID is in failIDs are reported and skipped
func (m *mockTechVisitStore) ReplaceImported(_ context.Context, rows []techvisit.TechnicalVisit, onRowError techvisitStore.RowErrorFunc) (int, error) {
	kept := m.rows[:0]
	for _, r := range m.rows {
		if r.Source != techvisit.SourceImport {
			kept = append(kept, r)
		}
	}
	m.rows = kept
	n := 0
	for i, r := range rows {
		if m.failIDs[r.ID] {
			onRowError(i, errors.New("insert failed"))
			continue
		}
		m.rows = append(m.rows, r)
		n++
	}
	return n, nil
}

// mockIndicatorStore implements IndicatorStoreForImport.
type mockIndicatorStore struct {
	rows []indicator.Indicator
	err  error
}

// ReplaceAll implements IndicatorStoreForImport.
// POST: rows replace the previous content unless err is set
func (m *mockIndicatorStore) ReplaceAll(_ context.Context, rows []indicator.Indicator, _ indicatorStore.RowErrorFunc) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.rows = append([]indicator.Indicator(nil), rows...)
	return len(rows), nil
}

// stubSheet implements ImportSheet over literal rows.
type stubSheet struct {
	header []string
	rows   [][]string
}

// Missing implements ImportSheet.
func (s stubSheet) Missing(want ...string) []string {
	var missing []string
	for _, w := range want {
		if s.index(w) < 0 {
			missing = append(missing, w)
		}
	}
	return missing
}

// Rows implements ImportSheet.
func (s stubSheet) Rows() [][]string { return s.rows }

// Cell implements ImportSheet.
func (s stubSheet) Cell(row []string, col string) string {
	i := s.index(col)
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (s stubSheet) index(col string) int {
	for i, h := range s.header {
		if strings.EqualFold(strings.TrimSpace(h), col) {
			return i
		}
	}
	return -1
}
