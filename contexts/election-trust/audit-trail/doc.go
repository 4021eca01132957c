// Package audittrail implements the tamper-evident audit ledger inside the
// election-trust context.
//
// The module owns the append-only hash chain: every entry links to its
// predecessor through a SHA-256 digest computed once at creation, appends are
// serialized through a single in-process appender, and chain validity is a
// derived read-time property exposed through the verify query. No update or
// delete operation exists on the ledger.
package audittrail
