package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/tramitex/cotiza/internal/catalog/domain"
	"github.com/tramitex/cotiza/internal/clock"
	quotedomain "github.com/tramitex/cotiza/internal/quote/domain"
	"github.com/tramitex/cotiza/internal/quote/pricing"
	"github.com/tramitex/cotiza/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        quotedomain.Repository
	CatalogRepo catalogdomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        quotedomain.Repository
	catalogRepo catalogdomain.Repository
}

func New(p Params) quotedomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("quote.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		catalogRepo: p.CatalogRepo,
	}
}

func (s *Service) Create(ctx context.Context, req quotedomain.CreateRequest) (*quotedomain.Response, error) {
	if err := validateClientReference(req.ClientID, req.ContactID, req.NewClientName); err != nil {
		return nil, err
	}
	if req.DiscountPercent < 0 || req.DiscountPercent > 100 {
		return nil, quotedomain.ErrInvalidDiscount
	}
	if len(req.Items) == 0 {
		return nil, quotedomain.ErrNoItems
	}

	clientID, contactID, err := parseClientRefs(req.ClientID, req.ContactID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	quote := &quotedomain.Quote{
		ID:              s.genID.Generate(),
		ClientID:        clientID,
		ContactID:       contactID,
		NewClientName:   trimOptional(req.NewClientName),
		DiscountPercent: req.DiscountPercent,
		DiscountReason:  strings.TrimSpace(req.DiscountReason),
		Observations:    req.Observations,
		ExpirationDate:  req.ExpirationDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.Metadata != nil {
		quote.Metadata = datatypes.JSONMap(req.Metadata)
	}

	items, err := s.buildItems(quote.ID, req.Items, now)
	if err != nil {
		return nil, err
	}
	quote.Items = items
	applyTotals(quote)

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, quote); err != nil {
			return err
		}
		return s.repo.ReplaceItems(ctx, tx, quote.ID, quote.Items)
	}); err != nil {
		return nil, err
	}

	return s.toResponse(ctx, quote)
}

func (s *Service) Get(ctx context.Context, id string) (*quotedomain.Response, error) {
	quote, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, quote)
}

func (s *Service) List(ctx context.Context, req quotedomain.ListRequest) (*quotedomain.ListResponse, error) {
	filter := quotedomain.ListFilter{}
	if strings.TrimSpace(req.ClientID) != "" {
		clientID, err := parseID(req.ClientID)
		if err != nil {
			return nil, quotedomain.ErrInvalidID
		}
		filter.ClientID = &clientID
	}

	quotes, err := s.repo.List(ctx, s.db, filter, req.Page)
	if err != nil {
		return nil, err
	}

	pageInfo, quotes := pagination.BuildCursorPageInfo(quotes, req.Page.Limit(), func(q *quotedomain.Quote) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: q.ID.String()})
		return token
	})

	thresholds, err := s.catalogRepo.MarginThresholdsByCategory(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]quotedomain.Response, 0, len(quotes))
	for _, quote := range quotes {
		// List responses carry headers only; items are fetched per quote.
		resp = append(resp, *buildResponse(quote, thresholds))
	}

	return &quotedomain.ListResponse{Quotes: resp, PageInfo: pageInfo}, nil
}

func (s *Service) Update(ctx context.Context, id string, req quotedomain.UpdateRequest) (*quotedomain.Response, error) {
	quote, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := validateClientReference(req.ClientID, req.ContactID, req.NewClientName); err != nil {
		return nil, err
	}
	if req.DiscountPercent < 0 || req.DiscountPercent > 100 {
		return nil, quotedomain.ErrInvalidDiscount
	}

	clientID, contactID, err := parseClientRefs(req.ClientID, req.ContactID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	quote.ClientID = clientID
	quote.ContactID = contactID
	quote.NewClientName = trimOptional(req.NewClientName)
	quote.DiscountPercent = req.DiscountPercent
	quote.DiscountReason = strings.TrimSpace(req.DiscountReason)
	quote.Observations = req.Observations
	quote.ExpirationDate = req.ExpirationDate
	quote.UpdatedAt = now

	replaceItems := req.Items != nil
	if replaceItems {
		if len(*req.Items) == 0 {
			return nil, quotedomain.ErrNoItems
		}
		items, err := s.buildItems(quote.ID, *req.Items, now)
		if err != nil {
			return nil, err
		}
		quote.Items = items
	}
	applyTotals(quote)

	if err := s.save(ctx, quote, replaceItems); err != nil {
		return nil, err
	}

	return s.toResponse(ctx, quote)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	quote, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Delete(ctx, tx, quote.ID)
	})
}

// ReplaceItems swaps the full item collection while leaving the header's
// commercial terms untouched.
func (s *Service) ReplaceItems(ctx context.Context, id string, inputs []quotedomain.ItemInput) (*quotedomain.Response, error) {
	quote, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, quotedomain.ErrNoItems
	}

	now := s.clock.Now()
	items, err := s.buildItems(quote.ID, inputs, now)
	if err != nil {
		return nil, err
	}
	quote.Items = items
	quote.UpdatedAt = now
	applyTotals(quote)

	if err := s.save(ctx, quote, true); err != nil {
		return nil, err
	}

	return s.toResponse(ctx, quote)
}

func (s *Service) AddItemFromTemplate(ctx context.Context, id string, req quotedomain.AddItemRequest) (*quotedomain.Response, error) {
	quote, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	hasProcedure := req.ProcedureTypeID != nil && strings.TrimSpace(*req.ProcedureTypeID) != ""
	hasService := req.CatalogServiceID != nil && strings.TrimSpace(*req.CatalogServiceID) != ""
	if hasProcedure == hasService {
		return nil, quotedomain.ErrInvalidTemplateRef
	}

	thresholds, err := s.catalogRepo.MarginThresholdsByCategory(ctx)
	if err != nil {
		return nil, err
	}

	var item quotedomain.QuoteItem
	if hasProcedure {
		tplID, err := parseID(*req.ProcedureTypeID)
		if err != nil {
			return nil, quotedomain.ErrInvalidTemplateRef
		}
		tpl, err := s.catalogRepo.FindProcedureType(ctx, tplID)
		if err != nil {
			return nil, err
		}
		if tpl == nil {
			return nil, quotedomain.ErrInvalidTemplate
		}
		item = pricing.NewItemFromProcedureType(*tpl, thresholds)
	} else {
		tplID, err := parseID(*req.CatalogServiceID)
		if err != nil {
			return nil, quotedomain.ErrInvalidTemplateRef
		}
		tpl, err := s.catalogRepo.FindCatalogService(ctx, tplID)
		if err != nil {
			return nil, err
		}
		if tpl == nil {
			return nil, quotedomain.ErrInvalidTemplate
		}
		item = pricing.NewItemFromCatalogService(*tpl, pricing.ParseTier(req.Tier))
	}

	now := s.clock.Now()
	item.ID = s.genID.Generate()
	item.QuoteID = quote.ID
	item.Position = len(quote.Items)
	item.CreatedAt = now
	item.UpdatedAt = now

	quote.Items = append(quote.Items, item)
	quote.UpdatedAt = now
	applyTotals(quote)

	if err := s.save(ctx, quote, true); err != nil {
		return nil, err
	}

	return s.toResponse(ctx, quote)
}

func (s *Service) UpdateItemField(ctx context.Context, id string, index int, req quotedomain.UpdateItemFieldRequest) (*quotedomain.Response, error) {
	quote, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(quote.Items) {
		return nil, quotedomain.ErrInvalidItemIndex
	}

	now := s.clock.Now()
	pricing.ApplyUpdate(&quote.Items[index], req.Field, req.Value)
	quote.Items[index].UpdatedAt = now
	quote.UpdatedAt = now
	applyTotals(quote)

	if err := s.save(ctx, quote, true); err != nil {
		return nil, err
	}

	return s.toResponse(ctx, quote)
}

func (s *Service) RemoveItem(ctx context.Context, id string, index int) (*quotedomain.Response, error) {
	quote, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(quote.Items) {
		return nil, quotedomain.ErrInvalidItemIndex
	}

	now := s.clock.Now()
	quote.Items = pricing.RemoveItem(quote.Items, index)
	for i := range quote.Items {
		quote.Items[i].Position = i
	}
	quote.UpdatedAt = now
	applyTotals(quote)

	if err := s.save(ctx, quote, true); err != nil {
		return nil, err
	}

	return s.toResponse(ctx, quote)
}

func (s *Service) Totals(ctx context.Context, id string) (*quotedomain.TotalsResponse, error) {
	quote, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	thresholds, err := s.catalogRepo.MarginThresholdsByCategory(ctx)
	if err != nil {
		return nil, err
	}

	totals := pricing.ComputeTotals(quote.Items, quote.DiscountPercent)
	return &quotedomain.TotalsResponse{
		TotalCost:          totals.TotalCost,
		TotalPrice:         totals.TotalPrice,
		DiscountAmount:     totals.DiscountAmount,
		FinalPrice:         totals.FinalPrice,
		TotalMargin:        totals.TotalMargin,
		TotalMarginPercent: totals.TotalMarginPercent,
		MarginSeverity:     string(aggregateSeverity(totals, thresholds)),
	}, nil
}

// load fetches the quote header and its ordered item list.
func (s *Service) load(ctx context.Context, id string) (*quotedomain.Quote, error) {
	quoteID, err := parseID(id)
	if err != nil {
		return nil, quotedomain.ErrInvalidID
	}

	quote, err := s.repo.FindByID(ctx, s.db, quoteID)
	if err != nil {
		return nil, err
	}
	if quote == nil {
		return nil, quotedomain.ErrNotFound
	}

	items, err := s.repo.ListItems(ctx, s.db, quoteID)
	if err != nil {
		return nil, err
	}
	quote.Items = items

	return quote, nil
}

func (s *Service) save(ctx context.Context, quote *quotedomain.Quote, replaceItems bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.UpdateHeader(ctx, tx, quote); err != nil {
			return err
		}
		if replaceItems {
			return s.repo.ReplaceItems(ctx, tx, quote.ID, quote.Items)
		}
		return nil
	})
}

// buildItems maps the incoming independent fields onto save-ready items.
// Every item flows through the engine so derived fields can never disagree
// with the inputs at the persistence boundary.
func (s *Service) buildItems(quoteID snowflake.ID, inputs []quotedomain.ItemInput, now time.Time) ([]quotedomain.QuoteItem, error) {
	items := make([]quotedomain.QuoteItem, 0, len(inputs))
	for i, input := range inputs {
		if input.ProcedureTypeID != nil && input.CatalogServiceID != nil {
			return nil, quotedomain.ErrInvalidTemplateRef
		}

		item := quotedomain.QuoteItem{
			ID:                       s.genID.Generate(),
			QuoteID:                  quoteID,
			Position:                 i,
			Concept:                  strings.TrimSpace(input.Concept),
			Category:                 strings.TrimSpace(input.Category),
			UnitCost:                 input.UnitCost,
			UnitPrice:                input.UnitPrice,
			Quantity:                 input.Quantity,
			RequiresExternalProvider: input.RequiresExternalProvider,
			ExternalProviderCost:     input.ExternalProviderCost,
			CostNotes:                input.CostNotes,
			CreatedAt:                now,
			UpdatedAt:                now,
		}
		if item.Quantity == 0 {
			item.Quantity = 1
		}

		if input.ProcedureTypeID != nil && strings.TrimSpace(*input.ProcedureTypeID) != "" {
			ref, err := parseID(*input.ProcedureTypeID)
			if err != nil {
				return nil, quotedomain.ErrInvalidTemplateRef
			}
			item.ProcedureTypeID = &ref
		}
		if input.CatalogServiceID != nil && strings.TrimSpace(*input.CatalogServiceID) != "" {
			ref, err := parseID(*input.CatalogServiceID)
			if err != nil {
				return nil, quotedomain.ErrInvalidTemplateRef
			}
			item.CatalogServiceID = &ref
		}
		if input.ExternalProviderID != nil && strings.TrimSpace(*input.ExternalProviderID) != "" {
			ref, err := parseID(*input.ExternalProviderID)
			if err != nil {
				return nil, quotedomain.ErrInvalidExternalProvider
			}
			item.ExternalProviderID = &ref
		}

		pricing.Recalculate(&item)
		items = append(items, item)
	}

	return items, nil
}

func validateClientReference(clientID, contactID, newClientName *string) error {
	set := 0
	if clientID != nil && strings.TrimSpace(*clientID) != "" {
		set++
	}
	if contactID != nil && strings.TrimSpace(*contactID) != "" {
		set++
	}
	if newClientName != nil && strings.TrimSpace(*newClientName) != "" {
		set++
	}
	if set != 1 {
		return quotedomain.ErrInvalidClientReference
	}
	return nil
}

func parseClientRefs(clientID, contactID *string) (*snowflake.ID, *snowflake.ID, error) {
	var client, contact *snowflake.ID
	if clientID != nil && strings.TrimSpace(*clientID) != "" {
		id, err := parseID(*clientID)
		if err != nil {
			return nil, nil, quotedomain.ErrInvalidID
		}
		client = &id
	}
	if contactID != nil && strings.TrimSpace(*contactID) != "" {
		id, err := parseID(*contactID)
		if err != nil {
			return nil, nil, quotedomain.ErrInvalidID
		}
		contact = &id
	}
	return client, contact, nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}
