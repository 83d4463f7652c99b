// Package mpesa is a client for the Safaricom Daraja payment gateway. It
// builds signed, validated requests for the gateway's financial
// operations (balance, C2B, STK push, B2C, B2B, reversal, status, QR,
// tax remittance, bill manager) and manages the OAuth bearer token
// lifecycle transparently.
//
// The root package re-exports the core types; the implementation lives in
// the core package and the optional bun-backed token store under
// store/sql.
package mpesa
