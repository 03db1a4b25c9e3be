package pos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bistrogest/internal/audit"
	"bistrogest/internal/auth"
	"bistrogest/internal/crates"
	"bistrogest/internal/inventory"
	"bistrogest/internal/models"
	"bistrogest/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidProduct  = inventory.ErrInvalidProduct
	ErrInvalidStaff    = errors.New("invalid staff list")
	ErrInvalidSettings = errors.New("invalid settings")
)

func validateProduct(p models.Product) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case p.Price.IsNegative(), p.CostPrice.IsNegative():
		return fmt.Errorf("%w: prices cannot be negative", ErrInvalidProduct)
	case p.Stock < 0:
		return fmt.Errorf("%w: %v", ErrInvalidProduct, inventory.ErrNegativeStock)
	case p.Threshold < 0:
		return fmt.Errorf("%w: threshold cannot be negative", ErrInvalidProduct)
	}
	return nil
}

func productLog(ctx context.Context, tx *store.Store, user, desc string, before, after *models.Product, id string) error {
	opts := audit.LogOptions{
		Type:        models.ActivityStockUpdate,
		UserName:    user,
		EntityType:  audit.EntityProduct,
		EntityID:    id,
		Description: desc,
	}
	if before != nil {
		opts.Before = *before
	}
	if after != nil {
		opts.After = *after
	}
	return audit.WriteLog(tx.DB().WithContext(ctx), opts)
}

func adjustment(p models.Product, before int, user string) models.StockMovement {
	return models.StockMovement{
		ID:          uuid.NewString(),
		ProductID:   p.ID,
		Reason:      models.MovementAdjustment,
		Quantity:    p.Stock - before,
		StockBefore: before,
		StockAfter:  p.Stock,
		CreatedBy:   user,
	}
}

// ReplaceProducts overwrites the whole catalog. Cart lines for products that
// disappear are dropped.
func (s *Service) ReplaceProducts(ctx context.Context, products []models.Product, user string) error {
	seen := make(map[string]bool, len(products))
	for i, p := range products {
		if p.ID == "" {
			products[i].ID = uuid.NewString()
		}
		if seen[products[i].ID] {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidProduct, products[i].ID)
		}
		seen[products[i].ID] = true
		if err := validateProduct(p); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.ReplaceProducts(ctx, products); err != nil {
			return err
		}
		return audit.WriteLog(tx.DB().WithContext(ctx), audit.LogOptions{
			Type:        models.ActivitySystem,
			UserName:    user,
			EntityType:  audit.EntityProduct,
			Description: fmt.Sprintf("Catalog replaced (%d products)", len(products)),
		})
	})
	if err != nil {
		return err
	}
	s.ledger.Replace(products)
	s.pruneCart()
	return nil
}

// UpsertProduct creates or edits one product. An empty ID creates a new one.
func (s *Service) UpsertProduct(ctx context.Context, p models.Product, user string) (models.Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	if err := validateProduct(p); err != nil {
		return models.Product{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.ledger.Product(p.ID)
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.PutProduct(ctx, p); err != nil {
			return err
		}
		if !exists {
			return productLog(ctx, tx, user, "Product created: "+p.Name, nil, &p, p.ID)
		}
		if prev.Stock != p.Stock {
			if err := tx.AddStockMovement(ctx, adjustment(p, prev.Stock, user)); err != nil {
				return err
			}
		}
		return productLog(ctx, tx, user, "Product updated: "+p.Name, &prev, &p, p.ID)
	})
	if err != nil {
		return models.Product{}, err
	}
	s.ledger.Put(p)
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.ledger.Product(id)
	if !ok {
		return ErrProductNotFound
	}
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.DeleteProduct(ctx, id); err != nil {
			return err
		}
		return productLog(ctx, tx, user, "Product deleted: "+prev.Name, &prev, nil, id)
	})
	if err != nil {
		return err
	}
	s.ledger.Remove(id)
	s.session.Cart.Delete(id)
	return nil
}

// SetStock overwrites the on-hand quantity of one product (stock count).
func (s *Service) SetStock(ctx context.Context, id string, stock int, user string) (models.Product, error) {
	if stock < 0 {
		return models.Product{}, inventory.ErrNegativeStock
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.ledger.Product(id)
	if !ok {
		return models.Product{}, ErrProductNotFound
	}
	next := prev
	next.Stock = stock

	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.PutProduct(ctx, next); err != nil {
			return err
		}
		if err := tx.AddStockMovement(ctx, adjustment(next, prev.Stock, user)); err != nil {
			return err
		}
		desc := fmt.Sprintf("Stock count %s: %d -> %d", next.Name, prev.Stock, stock)
		return productLog(ctx, tx, user, desc, &prev, &next, id)
	})
	if err != nil {
		return models.Product{}, err
	}
	if _, err := s.ledger.SetStock(id, stock); err != nil {
		return models.Product{}, err
	}
	return next, nil
}

// ReplaceStaff overwrites the staff list. Plain access codes are hashed; a member
// sent without a code keeps the one already stored.
func (s *Service) ReplaceStaff(ctx context.Context, staff []models.StaffMember, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := make(map[string]string, len(s.staff))
	for _, m := range s.staff {
		existing[m.ID] = m.AccessCode
	}

	usernames := make(map[string]bool, len(staff))
	out := make([]models.StaffMember, len(staff))
	for i, m := range staff {
		m.Name = strings.TrimSpace(m.Name)
		m.Username = strings.ToLower(strings.TrimSpace(m.Username))
		if m.Name == "" || m.Username == "" {
			return fmt.Errorf("%w: name and username are required", ErrInvalidStaff)
		}
		if usernames[m.Username] {
			return fmt.Errorf("%w: duplicate username %s", ErrInvalidStaff, m.Username)
		}
		usernames[m.Username] = true
		if m.ID == "" {
			m.ID = uuid.NewString()
		}

		switch {
		case m.AccessCode == "":
			code, ok := existing[m.ID]
			if !ok {
				return fmt.Errorf("%w: access code required for %s", ErrInvalidStaff, m.Username)
			}
			m.AccessCode = code
		case !auth.IsHashed(m.AccessCode):
			hash, err := auth.HashAccessCode(m.AccessCode)
			if err != nil {
				return err
			}
			m.AccessCode = hash
		}
		out[i] = m
	}

	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.ReplaceStaff(ctx, out); err != nil {
			return err
		}
		return audit.WriteLog(tx.DB().WithContext(ctx), audit.LogOptions{
			Type:        models.ActivityStaffEval,
			UserName:    user,
			EntityType:  "staff",
			Description: fmt.Sprintf("Staff list saved (%d members)", len(out)),
			After:       redactStaff(out),
		})
	})
	if err != nil {
		return err
	}
	s.staff = out
	return nil
}

var hundred = decimal.NewFromInt(100)

func validateSettings(st models.Settings) error {
	if st.TVARate.IsNegative() || st.TVARate.GreaterThanOrEqual(hundred) {
		return fmt.Errorf("%w: tva rate must be in [0,100)", ErrInvalidSettings)
	}
	for _, v := range []decimal.Decimal{
		st.MonthlyRent, st.MonthlyDJSalary, st.MonthlyManagerSalary, st.MonthlyElectricity,
		st.MonthlyWater, st.AppSubscription, st.MonthlyWifi, st.MonthlyCanal,
	} {
		if v.IsNegative() {
			return fmt.Errorf("%w: charges cannot be negative", ErrInvalidSettings)
		}
	}
	return nil
}

func (s *Service) UpdateSettings(ctx context.Context, st models.Settings, user string) error {
	if err := validateSettings(st); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if st.InstallationDate == 0 {
		st.InstallationDate = s.settings.InstallationDate
	}
	prev := s.settings
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.PutMetadata(ctx, models.MetaSettings, st); err != nil {
			return err
		}
		return audit.WriteLog(tx.DB().WithContext(ctx), audit.LogOptions{
			Type:        models.ActivitySystem,
			UserName:    user,
			EntityType:  "settings",
			Description: "Settings updated",
			Before:      prev,
			After:       st,
		})
	})
	if err != nil {
		return err
	}
	s.settings = st
	return nil
}

// UpdateStoreInfo edits the store record. The store id never changes and empty
// codes keep their current value.
func (s *Service) UpdateStoreInfo(ctx context.Context, info models.StoreInfo, user string) (models.StoreInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info.ID = s.info.ID
	if info.ActivationCode == "" {
		info.ActivationCode = s.info.ActivationCode
	}
	if info.StaffAccessCode == "" {
		info.StaffAccessCode = s.info.StaffAccessCode
	}

	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.PutMetadata(ctx, models.MetaStore, info); err != nil {
			return err
		}
		return audit.WriteLog(tx.DB().WithContext(ctx), audit.LogOptions{
			Type:        models.ActivitySystem,
			UserName:    user,
			EntityType:  "store",
			EntityID:    info.ID,
			Description: fmt.Sprintf("Store updated (TVA enabled: %t)", info.TVAEnabled),
		})
	})
	if err != nil {
		return models.StoreInfo{}, err
	}
	s.info = info
	return info, nil
}

func (s *Service) SetCategories(ctx context.Context, categories []string) error {
	clean := make([]string, 0, len(categories))
	seen := make(map[string]bool, len(categories))
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" || seen[strings.ToLower(c)] {
			continue
		}
		seen[strings.ToLower(c)] = true
		clean = append(clean, c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.PutMetadata(ctx, models.MetaCategories, clean); err != nil {
		return err
	}
	s.categories = clean
	return nil
}

func (s *Service) saveCrates(ctx context.Context, next models.CrateStock, user, desc string) error {
	prev := s.crates
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.PutMetadata(ctx, models.MetaCrates, next); err != nil {
			return err
		}
		return audit.WriteLog(tx.DB().WithContext(ctx), audit.LogOptions{
			Type:        models.ActivityConsigne,
			UserName:    user,
			EntityType:  "crates",
			Description: desc,
			Before:      prev,
			After:       next,
		})
	})
	if err != nil {
		return err
	}
	s.crates = next
	return nil
}

func (s *Service) AdjustCrates(ctx context.Context, field crates.Field, delta int, user string) (models.CrateStock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := crates.Adjust(s.crates, field, delta)
	if err != nil {
		return s.crates, err
	}
	if err := s.saveCrates(ctx, next, user, fmt.Sprintf("Crates %s %+d", field, delta)); err != nil {
		return s.crates, err
	}
	return next, nil
}

func (s *Service) ExchangeCrates(ctx context.Context, user string) (models.CrateStock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := crates.Exchange(s.crates)
	if err != nil {
		return s.crates, err
	}
	desc := fmt.Sprintf("Exchanged %d empty crates for 1 full crate", crates.EmptiesPerFull)
	if err := s.saveCrates(ctx, next, user, desc); err != nil {
		return s.crates, err
	}
	return next, nil
}

// UndoLog reverts a product change and refreshes the ledger to match.
func (s *Service) UndoLog(ctx context.Context, logID uint, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := audit.UndoLog(s.store.DB().WithContext(ctx), logID, user)
	if err != nil {
		return err
	}
	if res.Restored != nil {
		s.ledger.Put(*res.Restored)
	} else {
		s.ledger.Remove(res.ProductID)
		s.session.Cart.Delete(res.ProductID)
	}
	return nil
}

// hashStaffCodes returns a copy of in with every plain access code hashed.
func hashStaffCodes(in []models.StaffMember) ([]models.StaffMember, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]models.StaffMember, len(in))
	copy(out, in)
	for i := range out {
		if out[i].AccessCode == "" || auth.IsHashed(out[i].AccessCode) {
			continue
		}
		hash, err := auth.HashAccessCode(out[i].AccessCode)
		if err != nil {
			return nil, err
		}
		out[i].AccessCode = hash
	}
	return out, nil
}
