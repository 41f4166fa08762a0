// Package core provides the domain models and interfaces for the jobs package.
//
// It defines the Job record, the Storage persistence contract, the Handler
// capability, and the failure-classification error types shared by the other
// packages.
package core
