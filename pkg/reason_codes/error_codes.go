package reasoncodes

type ReasonCode string

const (
	ErrUnmarshal          ReasonCode = "UnmarshalError"
	ErrVerifierResolution ReasonCode = "VerifierResolutionError"
	ErrProofGeneration    ReasonCode = "ProofGenerationError"
	ErrSolana             ReasonCode = "SolanaBlockchainError"

	// proof input assembly
	MissingField          ReasonCode = "MissingField"
	ShapeMismatch         ReasonCode = "ShapeMismatch"
	InvalidDateField      ReasonCode = "InvalidDateField"
	UnknownSignal         ReasonCode = "UnknownSignal"
	PolicyRuleFormatError ReasonCode = "PolicyRuleFormatError"
	InvalidSignature      ReasonCode = "InvalidSignature"

	// field arithmetic
	DivisionByZero   ReasonCode = "DivisionByZero"
	EncodingOverflow ReasonCode = "EncodingOverflow"

	// secret sharing and investigations
	InsufficientShares  ReasonCode = "InsufficientShares"
	DuplicateShareIndex ReasonCode = "DuplicateShareIndex"
	InvalidThreshold    ReasonCode = "InvalidThreshold"
	InvalidShareIndex   ReasonCode = "InvalidShareIndex"
	UnknownTrustee      ReasonCode = "UnknownTrustee"

	// proof request lifecycle
	ProofAlreadyExists      ReasonCode = "ProofAlreadyExists"
	InvalidStateTransition  ReasonCode = "InvalidStateTransition"
	ProofVerificationFailed ReasonCode = "ProofVerificationFailed"

	// artifacts
	ArtifactDigestMismatch ReasonCode = "ArtifactDigestMismatch"
)
