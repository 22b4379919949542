// Package modules assembles the learning modules for a course.
package modules

import (
	"fmt"

	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/content"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/module"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/modules/girokonto"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/modules/intro"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/modules/offline"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/modules/online"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/modules/paymentmethods"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/modules/reflection"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/modules/transfer"
)

// NewRegistry builds every module from course and verifies the sequence is
// complete.
func NewRegistry(course *content.Course) (*module.Registry, error) {
	if course == nil {
		return nil, fmt.Errorf("course is required")
	}
	girokontoModule, err := girokonto.New(course.Girokonto)
	if err != nil {
		return nil, err
	}
	paymentMethodsModule, err := paymentmethods.New(course.PaymentMethods)
	if err != nil {
		return nil, err
	}
	offlineModule, err := offline.New(course.Offline)
	if err != nil {
		return nil, err
	}
	onlineModule, err := online.New(course.Online)
	if err != nil {
		return nil, err
	}
	transferModule, err := transfer.New(course.Transfer)
	if err != nil {
		return nil, err
	}
	reflectionModule, err := reflection.New(course.Reflection)
	if err != nil {
		return nil, err
	}

	registry, err := module.NewRegistry(
		intro.New(),
		girokontoModule,
		paymentMethodsModule,
		offlineModule,
		onlineModule,
		transferModule,
		reflectionModule,
	)
	if err != nil {
		return nil, err
	}
	if err := registry.ValidateComplete(); err != nil {
		return nil, fmt.Errorf("module registry: %w", err)
	}
	return registry, nil
}
