package catalog

// statusKind discriminates the HoldingStatus variants. The zero value is
// reserved so that a HoldingStatus built outside the constructors reports no
// variant at all instead of silently claiming one.
type statusKind int

const (
	kindAvailable statusKind = iota + 1
	kindOnLoan
	kindUnavailable
)

// StatusCommon carries the request/reservation fields shared by every
// holding-status variant.
type StatusCommon struct {
	IsRequested       bool
	Requests          int
	RequestsAvailable bool
}

// AvailableStatus means the holding can be borrowed immediately.
type AvailableStatus struct {
	Detail string
}

// OnLoanStatus means the holding is checked out. Due is nil when the provider
// does not publish a return date.
type OnLoanStatus struct {
	Detail string
	Due    *DateTime
}

// UnavailableStatus means the holding cannot be borrowed for a reason other
// than an active loan (reference-only, in repair, missing, ...).
type UnavailableStatus struct {
	Detail string
}

// HoldingStatus is a tagged union: exactly one of Available, OnLoan, or
// Unavailable is set, always. Values must be built through NewAvailable,
// NewOnLoan, or NewUnavailable; the discriminator is unexported so a
// zero-variant or multi-variant value cannot be expressed.
type HoldingStatus struct {
	kind   statusKind
	detail string
	due    *DateTime
	common StatusCommon
}

// NewAvailable builds a HoldingStatus in the available state.
func NewAvailable(detail string, common StatusCommon) HoldingStatus {
	return HoldingStatus{kind: kindAvailable, detail: detail, common: common}
}

// NewOnLoan builds a HoldingStatus in the on-loan state. due may be nil.
func NewOnLoan(detail string, due *DateTime, common StatusCommon) HoldingStatus {
	return HoldingStatus{kind: kindOnLoan, detail: detail, due: due, common: common}
}

// NewUnavailable builds a HoldingStatus in the unavailable state.
func NewUnavailable(detail string, common StatusCommon) HoldingStatus {
	return HoldingStatus{kind: kindUnavailable, detail: detail, common: common}
}

// Common returns the request/reservation fields shared by all variants.
func (s HoldingStatus) Common() StatusCommon {
	return s.common
}

// Available reports the available variant, if set.
func (s HoldingStatus) Available() (AvailableStatus, bool) {
	if s.kind != kindAvailable {
		return AvailableStatus{}, false
	}
	return AvailableStatus{Detail: s.detail}, true
}

// OnLoan reports the on-loan variant, if set.
func (s HoldingStatus) OnLoan() (OnLoanStatus, bool) {
	if s.kind != kindOnLoan {
		return OnLoanStatus{}, false
	}
	return OnLoanStatus{Detail: s.detail, Due: s.due}, true
}

// Unavailable reports the unavailable variant, if set.
func (s HoldingStatus) Unavailable() (UnavailableStatus, bool) {
	if s.kind != kindUnavailable {
		return UnavailableStatus{}, false
	}
	return UnavailableStatus{Detail: s.detail}, true
}

// Valid reports whether the status was built through one of the constructors.
// The zero HoldingStatus is not valid.
func (s HoldingStatus) Valid() bool {
	return s.kind != 0
}
