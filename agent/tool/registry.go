package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	catalogx "github.com/naratcha/shopmate/agent/catalog"
	contractx "github.com/naratcha/shopmate/agent/contract"
)

const (
	ToolSearchProducts = "search_products"
	ToolProductDetails = "get_product_details"
	ToolOrderStatus    = "check_order_status"
	ToolHumanSupport   = "redirect_to_human_support"
	ToolProductPage    = "redirect_to_product_page"
)

const defaultProductBaseURL = "https://shop-demo.example/products"

type SearchProductsOutput struct {
	Status   contractx.ResultStatus    `json:"status"`
	Count    int                       `json:"count,omitempty"`
	Products []catalogx.ProductSummary `json:"products,omitempty"`
	Message  string                    `json:"message,omitempty"`
}

type ProductDetailsOutput struct {
	Status  contractx.ResultStatus `json:"status"`
	Product *catalogx.Product      `json:"product,omitempty"`
	Message string                 `json:"message,omitempty"`
}

type OrderStatusOutput struct {
	Status  contractx.ResultStatus `json:"status"`
	Order   *catalogx.Order        `json:"order,omitempty"`
	Message string                 `json:"message,omitempty"`
}

type SupportRedirectOutput struct {
	Status     contractx.ResultStatus     `json:"status"`
	Reason     string                     `json:"reason"`
	Department catalogx.SupportDepartment `json:"department"`
	Message    string                     `json:"message"`
}

type ProductPageOutput struct {
	Status      contractx.ResultStatus `json:"status"`
	Action      string                 `json:"action,omitempty"`
	ProductName string                 `json:"product_name,omitempty"`
	URL         string                 `json:"url,omitempty"`
	InStock     bool                   `json:"in_stock,omitempty"`
	Message     string                 `json:"message,omitempty"`
}

// Registry exposes the fixed set of catalog query and routing tools.
// Every operation is pure: the only output is the returned ToolResult.
type Registry struct {
	catalog *catalogx.Catalog
	baseURL string
}

type Option func(*Registry)

func WithProductBaseURL(baseURL string) Option {
	return func(r *Registry) {
		trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
		if trimmed != "" {
			r.baseURL = trimmed
		}
	}
}

func New(catalog *catalogx.Catalog, opts ...Option) (*Registry, error) {
	if catalog == nil {
		return nil, errors.New("catalog is required")
	}
	r := &Registry{
		catalog: catalog,
		baseURL: defaultProductBaseURL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Executor returns the dispatch function handed to the agent capability.
// Expected misses come back as not_found results; only malformed requests
// (unknown tool name) populate the Error field. The returned error is always
// nil so the model, not the caller, decides how to phrase failures.
func (r *Registry) Executor() contractx.Executor {
	return func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
		switch tool {
		case ToolSearchProducts:
			return result(tool, r.SearchProducts(stringArg(args, "query"), stringArg(args, "category"))), nil
		case ToolProductDetails:
			return result(tool, r.ProductDetails(stringArg(args, "product_id"))), nil
		case ToolOrderStatus:
			return result(tool, r.OrderStatus(stringArg(args, "order_id"))), nil
		case ToolHumanSupport:
			return result(tool, r.HumanSupport(stringArg(args, "topic"), stringArg(args, "reason"))), nil
		case ToolProductPage:
			return result(tool, r.ProductPage(stringArg(args, "product_id"), stringArg(args, "action"))), nil
		default:
			return contractx.ToolResult{
				Tool:  tool,
				Error: fmt.Sprintf("tool=%s is not available", tool),
			}, nil
		}
	}
}

// SearchProducts scans the catalog in load order. A product matches when it
// passes the optional exact category filter and at least one lowercased query
// token appears in its name/category/brand/description text.
func (r *Registry) SearchProducts(query, category string) SearchProductsOutput {
	tokens := strings.Fields(strings.ToLower(query))

	var results []catalogx.ProductSummary
	for _, p := range r.catalog.Products() {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		searchable := strings.ToLower(p.Name + " " + p.Category + " " + p.Brand + " " + p.Description)
		for _, token := range tokens {
			if strings.Contains(searchable, token) {
				results = append(results, p.Summary())
				break
			}
		}
	}

	if len(results) == 0 {
		return SearchProductsOutput{
			Status:  contractx.StatusNotFound,
			Message: fmt.Sprintf("No products found matching %q. Try different keywords.", query),
		}
	}
	return SearchProductsOutput{
		Status:   contractx.StatusFound,
		Count:    len(results),
		Products: results,
	}
}

func (r *Registry) ProductDetails(productID string) ProductDetailsOutput {
	p, ok := r.catalog.Product(productID)
	if !ok {
		return ProductDetailsOutput{
			Status:  contractx.StatusNotFound,
			Message: fmt.Sprintf("Product %q not found. Use search_products to find valid IDs.", productID),
		}
	}
	return ProductDetailsOutput{
		Status:  contractx.StatusFound,
		Product: &p,
	}
}

func (r *Registry) OrderStatus(orderID string) OrderStatusOutput {
	o, ok := r.catalog.Order(orderID)
	if !ok {
		return OrderStatusOutput{
			Status: contractx.StatusNotFound,
			Message: fmt.Sprintf(
				"Order %q not found. Please check the order ID and try again. Order IDs look like ORD-XXXXX.",
				orderID,
			),
		}
	}
	return OrderStatusOutput{
		Status: contractx.StatusFound,
		Order:  &o,
	}
}

// HumanSupport always succeeds: unrecognized topics route to the general
// department.
func (r *Registry) HumanSupport(topic, reason string) SupportRedirectOutput {
	dept := r.catalog.Department(topic)
	return SupportRedirectOutput{
		Status:     contractx.StatusRedirected,
		Reason:     reason,
		Department: dept,
		Message: fmt.Sprintf(
			"I'm connecting you with our %s team. You can reach them at %s or %s (%s).",
			dept.Department, dept.Phone, dept.Email, dept.Hours,
		),
	}
}

func (r *Registry) ProductPage(productID, action string) ProductPageOutput {
	p, ok := r.catalog.Product(productID)
	if !ok {
		return ProductPageOutput{
			Status:  contractx.StatusNotFound,
			Message: fmt.Sprintf("Product %q not found.", productID),
		}
	}

	key := strings.ToUpper(strings.TrimSpace(productID))
	url := r.baseURL + "/" + key
	actionLabel := "View"
	if strings.EqualFold(action, "buy") {
		url += "/checkout"
		actionLabel = "Purchase"
	}

	return ProductPageOutput{
		Status:      contractx.StatusSuccess,
		Action:      actionLabel,
		ProductName: p.Name,
		URL:         url,
		InStock:     p.InStock,
	}
}

// Infos describes the registry to the model in eino's tool schema.
func (r *Registry) Infos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: ToolSearchProducts,
			Desc: "Search the product catalog by keyword and optional category.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query":    {Type: schema.String, Desc: "Search keywords, e.g. \"inverter air conditioner\"", Required: true},
				"category": {Type: schema.String, Desc: "Optional exact category filter, e.g. \"Televisions\""},
			}),
		},
		{
			Name: ToolProductDetails,
			Desc: "Get full details and specifications for a specific product.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"product_id": {Type: schema.String, Desc: "Product ID, e.g. \"AC-001\"", Required: true},
			}),
		},
		{
			Name: ToolOrderStatus,
			Desc: "Check the current status and tracking information for an order.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"order_id": {Type: schema.String, Desc: "Order ID, e.g. \"ORD-10001\"", Required: true},
			}),
		},
		{
			Name: ToolHumanSupport,
			Desc: "Route the customer to the appropriate human support department.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"topic":  {Type: schema.String, Desc: "One of: returns, warranty, delivery, payment, general", Required: true},
				"reason": {Type: schema.String, Desc: "Why the customer needs human support", Required: true},
			}),
		},
		{
			Name: ToolProductPage,
			Desc: "Generate a link for the customer to view or purchase a product.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"product_id": {Type: schema.String, Desc: "Product ID, e.g. \"AC-001\"", Required: true},
				"action":     {Type: schema.String, Desc: "\"view\" for the product page or \"buy\" for checkout"},
			}),
		},
	}
}

func result(tool string, out any) contractx.ToolResult {
	return contractx.ToolResult{
		Tool:   tool,
		Result: out,
	}
}

// stringArg tolerates missing or mistyped arguments: tool operations never
// reject input, a bad value simply fails the lookup downstream.
func stringArg(args map[string]any, key string) string {
	raw, ok := args[key]
	if !ok {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
