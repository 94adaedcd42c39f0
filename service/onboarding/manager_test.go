package onboarding

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/lumapay/onboard/core"
)

type fakeUsers struct {
	mu      sync.Mutex
	user    *core.User
	exists  bool
	findErr error
	finds   int

	created   *core.User
	createErr error

	link    string
	linkErr error
}

func (f *fakeUsers) Find(ctx context.Context, email string) (*core.User, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	if f.findErr != nil {
		return nil, false, f.findErr
	}
	return f.user, f.exists, nil
}

func (f *fakeUsers) Create(ctx context.Context, email, country, walletAddress string) (*core.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = &core.User{
		Email:         email,
		WalletAddress: walletAddress,
		UserActions:   []core.UserAction{{Type: core.ActionVerify}},
	}
	f.user, f.exists = f.created, true
	return f.created, nil
}

func (f *fakeUsers) VerificationLink(ctx context.Context, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.link, f.linkErr
}

func (f *fakeUsers) set(user *core.User, exists bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user, f.exists = user, exists
}

func (f *fakeUsers) findCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finds
}

type fakeConfirmations struct {
	mu        sync.Mutex
	sessionID string
	sendErr   error

	token     string
	verifyErr error

	confirmed bool
}

func (f *fakeConfirmations) SendSMS(ctx context.Context, email string, action core.ActionType) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return "", f.sendErr
	}
	return f.sessionID, nil
}

func (f *fakeConfirmations) VerifySMS(ctx context.Context, email, code, sessionID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.verifyErr != nil {
		return "", f.verifyErr
	}
	return f.token, nil
}

func (f *fakeConfirmations) ConfirmPhone(ctx context.Context, email, actionToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if actionToken == "" {
		return &core.APIError{Body: "confirm phone: missing action token"}
	}
	f.confirmed = true
	return nil
}

func (f *fakeConfirmations) VerifySignature(ctx context.Context, email string, proof core.SignatureProof) (string, error) {
	return "sig-token", nil
}

type fakeLedger struct {
	contracts map[string]string
	oracle    string
	err       error
}

func (f *fakeLedger) Contracts(ctx context.Context, registryID string) (map[string]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.contracts, nil
}

func (f *fakeLedger) FundsOracle(ctx context.Context, registryID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.oracle, nil
}

type fakeWalletz struct {
	mu      sync.Mutex
	address string

	creates  int
	lastSpec core.WalletSpec

	calls   []core.ContractCall
	sendErr error
}

func (f *fakeWalletz) GetOrCreate(ctx context.Context, spec core.WalletSpec) (*core.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	f.lastSpec = spec
	return &core.Wallet{Address: f.address, Chain: "stellar"}, nil
}

func (f *fakeWalletz) SendTransaction(ctx context.Context, address string, call core.ContractCall) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.calls = append(f.calls, call)
	return fmt.Sprintf("tx-%d", len(f.calls)), nil
}

type fakeWalletStore struct {
	mu        sync.Mutex
	addresses map[string]string
	findErr   error
}

func (f *fakeWalletStore) Save(ctx context.Context, email, address string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addresses == nil {
		f.addresses = map[string]string{}
	}
	f.addresses[email] = address
	return nil
}

func (f *fakeWalletStore) Find(ctx context.Context, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return "", f.findErr
	}
	return f.addresses[email], nil
}

type fixture struct {
	users         *fakeUsers
	confirmations *fakeConfirmations
	ledger        *fakeLedger
	walletz       *fakeWalletz
	wallets       *fakeWalletStore
	manager       *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		users:         &fakeUsers{link: "https://kyc.example.com/verify"},
		confirmations: &fakeConfirmations{sessionID: "sess-1", token: "act-tok"},
		ledger: &fakeLedger{
			contracts: map[string]string{
				contractPolicy:   "CPOLICY",
				contractAccounts: "CACCOUNTS",
			},
			oracle: "GORACLE",
		},
		walletz: &fakeWalletz{address: "GWALLET"},
		wallets: &fakeWalletStore{},
	}

	f.manager = New(
		f.users, f.confirmations, f.ledger, f.walletz, f.wallets,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config{
			Country:       "US",
			Registry:      "CREGISTRY",
			ParentEntity:  "00000000000000000000000000000027",
			PrimeContract: "CPRIME",
			PollInterval:  10 * time.Millisecond,
		},
	)
	t.Cleanup(f.manager.Close)

	return f
}

func waitForStep(t *testing.T, m *Manager, email string, want core.OnboardingStep) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s := m.session(email)
		s.mux.Lock()
		step := s.flow.Step
		s.mux.Unlock()

		if step == want {
			return
		}

		time.Sleep(time.Millisecond)
	}

	t.Fatalf("step never reached %s", want)
}

const email = "alice@example.com"

func TestResumeAbsentRecord(t *testing.T) {
	f := newFixture(t)

	flow, err := f.manager.Resume(context.Background(), email)
	if err != nil {
		t.Fatalf("Resume() err = %v", err)
	}

	if flow.Step != core.StepInitial {
		t.Errorf("step = %s, want initial", flow.Step)
	}
}

func TestResumePollsUntilVerified(t *testing.T) {
	f := newFixture(t)
	f.users.set(&core.User{
		Email:              email,
		VerificationStatus: core.VerificationNone,
		UserActions:        []core.UserAction{{Type: core.ActionVerify}},
	}, true)

	flow, err := f.manager.Resume(context.Background(), email)
	if err != nil {
		t.Fatalf("Resume() err = %v", err)
	}

	if flow.Step != core.StepKYCVerification {
		t.Fatalf("step = %s, want kyc-verification", flow.Step)
	}

	if flow.VerificationLink != "https://kyc.example.com/verify" {
		t.Errorf("verification link = %q", flow.VerificationLink)
	}

	// remote side finishes verification; the poller must pick it up
	f.users.set(&core.User{
		Email:              email,
		VerificationStatus: core.VerificationApproved,
	}, true)

	waitForStep(t, f.manager, email, core.StepCompleted)

	// the poller must be gone once the step left the KYC set
	settled := f.users.findCount()
	time.Sleep(100 * time.Millisecond)
	if after := f.users.findCount(); after != settled {
		t.Errorf("poller still fetching after completion: %d -> %d", settled, after)
	}
}

func TestResumeKYCPendingStatus(t *testing.T) {
	f := newFixture(t)
	f.users.set(&core.User{
		Email:              email,
		VerificationStatus: core.VerificationInReview,
		UserActions:        []core.UserAction{{Type: core.ActionVerify}},
	}, true)

	flow, _ := f.manager.Resume(context.Background(), email)
	if flow.Step != core.StepKYCPending {
		t.Errorf("step = %s, want kyc-pending", flow.Step)
	}
}

func TestSMSConfirmationFlow(t *testing.T) {
	f := newFixture(t)
	f.users.set(&core.User{
		Email:              email,
		VerificationStatus: core.VerificationApproved,
		UserActions:        []core.UserAction{{Type: core.ActionConfirmPhone}},
	}, true)

	ctx := context.Background()

	flow, _ := f.manager.Resume(ctx, email)
	if flow.Step != core.StepSMSConfirmation {
		t.Fatalf("step = %s, want sms-confirmation", flow.Step)
	}

	flow, err := f.manager.SendSMS(ctx, email)
	if err != nil {
		t.Fatalf("SendSMS() err = %v", err)
	}
	if flow.SMSSessionID != "sess-1" {
		t.Fatalf("sms session = %q", flow.SMSSessionID)
	}

	flow, err = f.manager.VerifySMS(ctx, email, "123456")
	if err != nil {
		t.Fatalf("VerifySMS() err = %v", err)
	}

	if flow.Step != core.StepCompleted {
		t.Errorf("step = %s, want completed", flow.Step)
	}
	if !f.confirmations.confirmed {
		t.Error("phone never confirmed against the issuer")
	}
}

func TestVerifySMSWithoutToken(t *testing.T) {
	f := newFixture(t)
	f.confirmations.token = "" // exchange succeeds but yields no token
	f.users.set(&core.User{
		Email:              email,
		VerificationStatus: core.VerificationApproved,
		UserActions:        []core.UserAction{{Type: core.ActionConfirmPhone}},
	}, true)

	ctx := context.Background()
	_, _ = f.manager.Resume(ctx, email)
	_, _ = f.manager.SendSMS(ctx, email)

	flow, err := f.manager.VerifySMS(ctx, email, "123456")
	if err != nil {
		t.Fatalf("VerifySMS() err = %v", err)
	}

	if flow.Step != core.StepSMSConfirmation {
		t.Errorf("step = %s, must not advance without an action token", flow.Step)
	}
	if flow.Error == "" {
		t.Error("flow error not captured")
	}
	if f.confirmations.confirmed {
		t.Error("phone confirmed despite missing token")
	}
}

func TestStartHappyPath(t *testing.T) {
	f := newFixture(t)

	flow, err := f.manager.Start(context.Background(), email)
	if err != nil {
		t.Fatalf("Start() err = %v", err)
	}

	if flow.Step != core.StepKYCPending {
		t.Fatalf("step = %s, want kyc-pending", flow.Step)
	}
	if flow.WalletAddress != "GWALLET" {
		t.Errorf("wallet address = %q", flow.WalletAddress)
	}
	if flow.VerificationLink == "" {
		t.Error("verification link missing")
	}

	spec := f.walletz.lastSpec
	if len(spec.Plugins) != 1 || spec.Plugins[0] != "CPOLICY" {
		t.Errorf("plugins = %v", spec.Plugins)
	}
	if len(spec.DelegatedSigners) != 1 || spec.DelegatedSigners[0] != "external-wallet:GORACLE" {
		t.Errorf("delegated signers = %v", spec.DelegatedSigners)
	}

	if len(f.walletz.calls) != 2 {
		t.Fatalf("contract calls = %d, want prime + register", len(f.walletz.calls))
	}
	if f.walletz.calls[0].Method != methodPrime {
		t.Errorf("first call = %s, priming must come first", f.walletz.calls[0].Method)
	}
	register := f.walletz.calls[1]
	if register.ContractID != "CACCOUNTS" || register.Method != methodRegister {
		t.Errorf("register call = %+v", register)
	}
	if register.Args["parent_entity"] != "00000000000000000000000000000027" {
		t.Errorf("parent entity = %v", register.Args["parent_entity"])
	}

	if f.users.created == nil {
		t.Fatal("issuer user never created")
	}
	if f.users.created.WalletAddress != "GWALLET" {
		t.Errorf("user wallet = %q", f.users.created.WalletAddress)
	}
	if f.wallets.addresses[email] != "GWALLET" {
		t.Errorf("wallet store = %v", f.wallets.addresses)
	}
}

func TestStartColdSessionUsesRemoteState(t *testing.T) {
	f := newFixture(t)
	f.users.set(&core.User{
		Email:              email,
		VerificationStatus: core.VerificationApproved,
	}, true)

	// no prior Resume: the session knows nothing about this user yet
	flow, err := f.manager.Start(context.Background(), email)
	if err != nil {
		t.Fatalf("Start() err = %v", err)
	}

	if flow.Step != core.StepCompleted {
		t.Errorf("step = %s, want completed from the remote record", flow.Step)
	}
	if f.walletz.creates != 0 {
		t.Errorf("wallet creates = %d, want none for an onboarded user", f.walletz.creates)
	}
	if len(f.walletz.calls) != 0 {
		t.Errorf("contract calls = %d, want none", len(f.walletz.calls))
	}
	if f.users.created != nil {
		t.Error("issuer user re-created")
	}
}

func TestStartColdSessionIssuerDown(t *testing.T) {
	f := newFixture(t)
	f.users.findErr = &core.APIError{Status: 502, Body: "upstream down"}

	flow, err := f.manager.Start(context.Background(), email)
	if err != nil {
		t.Fatalf("Start() err = %v", err)
	}

	if flow.Error == "" {
		t.Error("error not surfaced")
	}
	if f.walletz.creates != 0 {
		t.Errorf("wallet creates = %d, must not start blind", f.walletz.creates)
	}
}

func TestResumeWalletStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.wallets.findErr = &core.APIError{Status: 500, Body: "db down"}
	f.users.set(&core.User{
		Email:              email,
		VerificationStatus: core.VerificationApproved,
		WalletAddress:      "GWALLET",
	}, true)

	flow, err := f.manager.Resume(context.Background(), email)
	if err != nil {
		t.Fatalf("Resume() err = %v", err)
	}

	if flow.Step != core.StepCompleted {
		t.Errorf("step = %s, store failure must not block resume", flow.Step)
	}
	if flow.WalletAddress != "GWALLET" {
		t.Errorf("wallet address = %q, want fallback to the remote record", flow.WalletAddress)
	}
}

func TestStartOnchainFailureRevertsToInitial(t *testing.T) {
	f := newFixture(t)
	f.walletz.sendErr = &core.WalletError{Op: "send", Err: fmt.Errorf("sequence mismatch")}

	flow, err := f.manager.Start(context.Background(), email)
	if err != nil {
		t.Fatalf("Start() err = %v", err)
	}

	if flow.Step != core.StepInitial {
		t.Errorf("step = %s, want revert to initial", flow.Step)
	}
	if flow.Error == "" {
		t.Error("error not captured")
	}
	if f.users.created != nil {
		t.Error("issuer user created despite on-chain failure")
	}
}

func TestStartUserCreateFailureHoldsForRetry(t *testing.T) {
	f := newFixture(t)
	f.users.createErr = &core.APIError{Status: 502, Body: "upstream down"}

	ctx := context.Background()

	flow, _ := f.manager.Start(ctx, email)
	if flow.Step != core.StepCreatingUser {
		t.Fatalf("step = %s, want hold at creating-wirex-user", flow.Step)
	}
	if f.walletz.creates != 1 {
		t.Fatalf("wallet creates = %d", f.walletz.creates)
	}

	// retry resumes at user creation without redoing the chain work
	f.users.createErr = nil

	flow, _ = f.manager.Start(ctx, email)
	if flow.Step != core.StepKYCPending {
		t.Errorf("step after retry = %s, want kyc-pending", flow.Step)
	}
	if f.walletz.creates != 1 {
		t.Errorf("wallet creates after retry = %d, want 1", f.walletz.creates)
	}
}

func TestSweepCancelsPoller(t *testing.T) {
	f := newFixture(t)
	f.users.set(&core.User{
		Email:              email,
		VerificationStatus: core.VerificationPending,
		UserActions:        []core.UserAction{{Type: core.ActionVerify}},
	}, true)

	flow, _ := f.manager.Resume(context.Background(), email)
	if flow.Step != core.StepKYCPending {
		t.Fatalf("step = %s", flow.Step)
	}

	if dropped := f.manager.Sweep(0); dropped != 1 {
		t.Fatalf("Sweep() = %d, want 1", dropped)
	}

	// give an orphaned poller time to betray itself
	time.Sleep(30 * time.Millisecond)
	settled := f.users.findCount()
	time.Sleep(100 * time.Millisecond)
	if after := f.users.findCount(); after != settled {
		t.Errorf("poller survived the sweep: %d -> %d", settled, after)
	}
}
