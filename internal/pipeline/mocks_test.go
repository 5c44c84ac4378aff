package pipeline

import (
	"context"
	"sync"

	"github.com/nfaudit/nfaudit/internal/auditor"
	"github.com/nfaudit/nfaudit/internal/nfe"
	"github.com/nfaudit/nfaudit/internal/rules"
)

// mockAuditor implements ContextAuditor for testing.
type mockAuditor struct {
	mu        sync.Mutex
	Analysis  auditor.Analysis
	AuditFunc func(ctx context.Context, inv nfe.Invoice, prior []rules.Violation, caseContext string) auditor.Analysis
	CallCount int
	LastPrior []rules.Violation
}

func (m *mockAuditor) Audit(ctx context.Context, inv nfe.Invoice, prior []rules.Violation, caseContext string) auditor.Analysis {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++
	m.LastPrior = prior

	if m.AuditFunc != nil {
		return m.AuditFunc(ctx, inv, prior, caseContext)
	}
	return m.Analysis
}

func approvingAuditor(confidence float64) *mockAuditor {
	return &mockAuditor{Analysis: auditor.Analysis{
		Approved:   true,
		Confidence: confidence,
		Reasoning:  "values consistent for the declared operation",
	}}
}
