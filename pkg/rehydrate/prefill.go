package rehydrate

import "github.com/goliatone/go-formflow/pkg/descriptor"

// Case-context seed keys shared with the rules service.
const (
	ContextKeyIncorporationCountry = "incorporationCountry"
	ContextKeyOnboardingCountries  = "onboardingCountries"
	ContextKeyProcessType          = "processType"
	ContextKeySignatureRequirement = "signatureRequirement"
)

// CasePrefill carries the case-creation data projected into the initial case
// context.
type CasePrefill struct {
	IncorporationCountry string   `json:"incorporationCountry,omitempty"`
	OnboardingCountries  []string `json:"onboardingCountries,omitempty"`
	ProcessType          string   `json:"processType,omitempty"`
	SignatureRequirement string   `json:"signatureRequirement,omitempty"`
}

// SeedContext projects the case prefill into a fresh case context. Later
// discriminant updates merge over these seeds without clobbering unrelated
// keys (UpdateContext only touches discriminant ids).
func SeedContext(prefill CasePrefill) descriptor.CaseContext {
	seed := descriptor.CaseContext{}
	if prefill.IncorporationCountry != "" {
		seed[ContextKeyIncorporationCountry] = prefill.IncorporationCountry
	}
	if len(prefill.OnboardingCountries) > 0 {
		seed[ContextKeyOnboardingCountries] = append([]string{}, prefill.OnboardingCountries...)
	}
	if prefill.ProcessType != "" {
		seed[ContextKeyProcessType] = prefill.ProcessType
	}
	if prefill.SignatureRequirement != "" {
		seed[ContextKeySignatureRequirement] = prefill.SignatureRequirement
	}
	return seed
}
