// Package logx configures bdaybot's structured logging.
//
// logx.Logger is a small value type on top of zerolog:
//   - Console output stays readable (short timestamp + short caller)
//   - File output is JSON, one event per line
//   - An optional Telegram sink forwards warnings to an operator chat (min-level + rate limit)
package logx
