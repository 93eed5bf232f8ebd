package dynamo

// DynamoDB attribute names used in key, condition and update expressions.
const (
	fieldIdentifier   = "identifier"
	fieldOTPID        = "otp_id"
	fieldToken        = "token"
	fieldAccountID    = "account_id"
	fieldVerified     = "verified"
	fieldUsed         = "used"
	fieldUsedAt       = "used_at"
	fieldPasswordHash = "password_hash"
	fieldUpdatedAt    = "updated_at"
	fieldOwner        = "owner_id"
	fieldTTL          = "ttl" // reserved word, always aliased

	indexIdentifier = "identifier-index"

	// identifierGuardPrefix keys the item that reserves an identifier in the
	// accounts table. Guard items carry no identifier attribute, so the GSI
	// never returns them.
	identifierGuardPrefix = "identifier#"
)

// batchWriteLimit is the BatchWriteItem request cap.
const batchWriteLimit = 25
