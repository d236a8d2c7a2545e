package sdk

// SupportedSchemaMajor is the schema major version of the riskaudit://schema
// resource this client understands. Compatible rejects any other major.
const SupportedSchemaMajor = "1"
