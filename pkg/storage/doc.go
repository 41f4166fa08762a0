// Package storage provides storage implementations for the jobs package.
package storage
