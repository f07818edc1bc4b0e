package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/roach88/fleetdesk/internal/driver"
	"github.com/roach88/fleetdesk/internal/ingest"
	"github.com/roach88/fleetdesk/internal/otp"
)

// Step bounds.
const (
	FirstStep = 1
	LastStep  = 3
)

// stepFields lists the fields each step is responsible for, by JSON name.
var stepFields = map[int][]string{
	1: {"name", "phone", "dob", "gender"},
	2: {"emergencyName", "emergencyRelationship", "emergencyPhone", "vehicleType", "vehicleNumber"},
	3: {},
}

// Submitter persists a finished form.
type Submitter interface {
	Create(ctx context.Context, c driver.Candidate) ([]driver.Driver, error)
	Update(ctx context.Context, d driver.Driver) ([]driver.Driver, error)
}

// Flow is one open registration form.
//
// Thread-safety: Flow is safe for concurrent use via internal mutex.
type Flow struct {
	store Submitter
	slots *ingest.Slots
	otp   *otp.Session
	log   *slog.Logger
	owner string

	mu      sync.Mutex
	step    int
	form    driver.Candidate
	editing *driver.Driver
}

// Option configures a Flow.
type Option func(*Flow)

// WithSlots sets the upload slot table. Defaults to a private one.
func WithSlots(s *ingest.Slots) Option {
	return func(f *Flow) { f.slots = s }
}

// WithOTP sets the phone verification session. Defaults to one that logs
// codes instead of sending them.
func WithOTP(s *otp.Session) Option {
	return func(f *Flow) { f.otp = s }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(f *Flow) { f.log = l }
}

// WithOwner sets the upload slot owner name. Defaults to a fresh token.
func WithOwner(owner string) Option {
	return func(f *Flow) { f.owner = owner }
}

// New opens an empty form in create mode.
func New(store Submitter, opts ...Option) *Flow {
	f := &Flow{
		store: store,
		log:   slog.Default(),
		step:  FirstStep,
		form:  emptyForm(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.owner == "" {
		f.owner = "registration-" + ingest.UUIDv7Generator{}.Generate()
	}
	if f.slots == nil {
		f.slots = ingest.NewSlots(ingest.WithLogger(f.log))
	}
	if f.otp == nil {
		f.otp = otp.NewSession(otp.LogSender{Log: f.log}, otp.WithLogger(f.log))
	}
	return f
}

func emptyForm() driver.Candidate {
	docs := make(driver.Documents, len(driver.DocumentKinds))
	for _, k := range driver.DocumentKinds {
		docs[k] = nil
	}
	return driver.Candidate{Documents: docs}
}

// Edit switches the form to edit mode, prefilled from d. Submit will
// update d and keep its id.
func (f *Flow) Edit(d driver.Driver) {
	f.mu.Lock()
	defer f.mu.Unlock()

	d = d.Clone()
	d.Normalize()
	f.editing = &d
	f.step = FirstStep
	f.form = cloneForm(driver.Candidate{
		Name:                  d.Name,
		Phone:                 d.Phone,
		VehicleType:           d.VehicleType,
		VehicleNumber:         d.VehicleNumber,
		DOB:                   d.DOB,
		Gender:                d.Gender,
		EmergencyName:         d.EmergencyName,
		EmergencyRelationship: d.EmergencyRelationship,
		EmergencyPhone:        d.EmergencyPhone,
		Documents:             d.Documents,
	})
}

// Editing returns the id being edited, or 0 in create mode.
func (f *Flow) Editing() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editing == nil {
		return 0
	}
	return f.editing.ID
}

// Step returns the current step, FirstStep through LastStep.
func (f *Flow) Step() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Form returns a copy of the form contents.
func (f *Flow) Form() driver.Candidate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneForm(f.form)
}

// Fill applies fn to the form. Documents are managed by Upload and
// RemoveDocument; changes fn makes to them are ignored.
func (f *Flow) Fill(fn func(c *driver.Candidate)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	docs := f.form.Documents
	fn(&f.form)
	f.form.Documents = docs
}

// Next validates the current step and advances. It stays on the last
// step.
func (f *Flow) Next() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkStep(f.step); err != nil {
		return err
	}
	if f.step < LastStep {
		f.step++
	}
	return nil
}

// Previous goes back one step without validating. It stays on the first
// step.
func (f *Flow) Previous() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step > FirstStep {
		f.step--
	}
}

// checkStep reports the validation faults that belong to step.
func (f *Flow) checkStep(step int) error {
	c := cloneForm(f.form)
	err := c.Validate()
	if err == nil {
		return nil
	}
	var ve *driver.ValidationError
	if !errors.As(err, &ve) {
		return err
	}

	var fields []string
	for _, name := range ve.Fields {
		if slices.Contains(stepFields[step], name) || (step == LastStep && strings.HasPrefix(name, "documents.")) {
			fields = append(fields, name)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return &driver.ValidationError{Fields: fields}
}

// Upload reads src into the kind slot and binds the result to the form.
// A newer upload on the same slot wins; the older call returns
// ingest.ErrSuperseded.
func (f *Flow) Upload(ctx context.Context, kind driver.DocumentKind, src ingest.Source) (*driver.DocumentBlob, error) {
	if _, err := driver.ParseDocumentKind(string(kind)); err != nil {
		return nil, &driver.ValidationError{Fields: []string{"documents." + string(kind)}}
	}

	task := f.slots.Start(ctx, ingest.Slot{Owner: f.owner, Kind: kind}, src)
	blob, err := task.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", kind, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	// A newer upload or a Reset may have claimed the slot since Wait.
	err = f.slots.Commit(task, func() {
		f.form.Documents[kind] = blob
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", kind, err)
	}
	f.log.Debug("document bound", "kind", string(kind), "file", blob.Name, "size", blob.Size)

	cp := *blob
	return &cp, nil
}

// RemoveDocument clears the kind slot.
func (f *Flow) RemoveDocument(kind driver.DocumentKind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.form.Documents[kind]; ok {
		f.form.Documents[kind] = nil
	}
}

// SendOTP sends a verification code to the form's phone number.
func (f *Flow) SendOTP(ctx context.Context) error {
	f.mu.Lock()
	phone := f.form.Phone
	f.mu.Unlock()
	return f.otp.Send(ctx, phone)
}

// ResendOTP resends the code once the countdown has ended.
func (f *Flow) ResendOTP(ctx context.Context) error {
	return f.otp.Resend(ctx)
}

// VerifyOTP checks code against the last code sent.
func (f *Flow) VerifyOTP(code string) error {
	f.otp.Enter(code)
	return f.otp.Verify()
}

// PhoneVerified reports whether the phone number was verified. It is
// informational; Submit does not require it.
func (f *Flow) PhoneVerified() bool {
	return f.otp.Verified()
}

// OTP exposes the verification session.
func (f *Flow) OTP() *otp.Session { return f.otp }

// Submit creates or updates the driver and resets the form. The returned
// list is the store's canonical list. A validation failure keeps the form
// and moves to the first step with a fault. A storage failure still resets
// the form, since the store kept the change in memory.
func (f *Flow) Submit(ctx context.Context) ([]driver.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for step := FirstStep; step <= LastStep; step++ {
		if err := f.checkStep(step); err != nil {
			f.step = step
			return nil, err
		}
	}

	var (
		list []driver.Driver
		err  error
	)
	if f.editing != nil {
		list, err = f.store.Update(ctx, f.merged())
	} else {
		list, err = f.store.Create(ctx, cloneForm(f.form))
	}
	if driver.IsValidationError(err) {
		return list, err
	}

	f.log.Info("registration submitted", "edit", f.editing != nil, "verified", f.otp.Verified())
	f.resetLocked()
	return list, err
}

// merged overlays the form on the record being edited.
func (f *Flow) merged() driver.Driver {
	d := f.editing.Clone()
	c := cloneForm(f.form)
	d.Name = strings.TrimSpace(c.Name)
	d.Phone = strings.TrimSpace(c.Phone)
	d.VehicleType = c.VehicleType
	d.VehicleNumber = strings.TrimSpace(c.VehicleNumber)
	d.DOB = c.DOB
	d.Gender = c.Gender
	d.EmergencyName = c.EmergencyName
	d.EmergencyRelationship = c.EmergencyRelationship
	d.EmergencyPhone = c.EmergencyPhone
	d.Documents = c.Documents
	return d
}

// Reset closes the form: back to step 1, create mode, empty fields, and
// pending uploads superseded.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
}

func (f *Flow) resetLocked() {
	f.slots.Release(f.owner)
	f.otp.Reset()
	f.step = FirstStep
	f.form = emptyForm()
	f.editing = nil
}

func cloneForm(c driver.Candidate) driver.Candidate {
	out := c
	out.Documents = make(driver.Documents, len(c.Documents))
	for k, b := range c.Documents {
		if b == nil {
			out.Documents[k] = nil
			continue
		}
		cp := *b
		out.Documents[k] = &cp
	}
	return out
}
