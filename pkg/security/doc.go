// Package security provides validation, sanitization, and limits for the jobs package.
package security
