// Package arm adapts the Azure Resource Manager SDK clients to the
// ManagementClient port. Paging, auth, and retries are the SDK's concern;
// this package maps wire models onto the canonical domain types.
package arm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	azarm "github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resourcehealth/armresourcehealth"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armsubscriptions"

	"github.com/yairfalse/peili/provider"
	"github.com/yairfalse/peili/telemetry"
	"github.com/yairfalse/peili/types"
)

const defaultEndpoint = "https://management.azure.com"

// Config holds client settings.
type Config struct {
	Endpoint   string
	APIVersion string // api-version for point resource reads
	Timeout    time.Duration
	Tokens     provider.TokenProvider

	// Retry overrides the SDK retry policy; the zero value keeps the SDK
	// defaults.
	Retry policy.RetryOptions
}

// Client is the SDK-backed ManagementClient.
type Client struct {
	apiVersion    string
	timeout       time.Duration
	cred          azcore.TokenCredential
	options       *azarm.ClientOptions
	subscriptions *armsubscriptions.Client
	logger        *telemetry.Logger
}

// tokenCredential adapts the TokenProvider port to the SDK's credential
// interface. The token's actual lifetime is the provider's concern; the
// reported expiry only bounds the SDK's refresh interval.
type tokenCredential struct {
	tokens provider.TokenProvider
}

func (c tokenCredential) GetToken(ctx context.Context, _ policy.TokenRequestOptions) (azcore.AccessToken, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return azcore.AccessToken{}, fmt.Errorf("acquire token: %w", err)
	}
	return azcore.AccessToken{Token: token, ExpiresOn: time.Now().Add(time.Hour)}, nil
}

// New creates an ARM client.
func New(cfg Config) (*Client, error) {
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("arm: token provider is required")
	}
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = "2021-04-01"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	cred := tokenCredential{tokens: cfg.Tokens}
	options := &azarm.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: cfg.Retry,
			Cloud: cloud.Configuration{
				Services: map[cloud.ServiceName]cloud.ServiceConfiguration{
					cloud.ResourceManager: {
						Audience: endpoint,
						Endpoint: endpoint,
					},
				},
			},
			InsecureAllowCredentialWithHTTP: strings.HasPrefix(endpoint, "http://"),
		},
	}

	subscriptions, err := armsubscriptions.NewClient(cred, options)
	if err != nil {
		return nil, fmt.Errorf("arm: create subscriptions client: %w", err)
	}

	return &Client{
		apiVersion:    apiVersion,
		timeout:       timeout,
		cred:          cred,
		options:       options,
		subscriptions: subscriptions,
		logger:        telemetry.NewLogger("arm-client"),
	}, nil
}

func (c *Client) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) resources(scopeID string) (*armresources.Client, error) {
	return armresources.NewClient(scopeID, c.cred, c.options)
}

// ListResources enumerates all resources of the subscription. The SDK
// pager follows nextLink continuations until exhausted.
func (c *Client) ListResources(ctx context.Context, scopeID string) ([]types.Resource, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()

	client, err := c.resources(scopeID)
	if err != nil {
		return nil, fmt.Errorf("create resources client: %w", err)
	}

	pager := client.NewListPager(&armresources.ClientListOptions{
		Expand: to.Ptr("provisioningState"),
	})

	var resources []types.Resource
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list resources: %w", err)
		}
		for _, item := range page.Value {
			if item == nil {
				continue
			}
			resources = append(resources, expandedToResource(scopeID, item))
		}
	}

	c.logger.WithContext(ctx).Debug().
		Str("scope", scopeID).
		Int("resources", len(resources)).
		Msg("enumeration complete")
	return resources, nil
}

// GetResource fetches one resource by ID. A 404 maps to (nil, nil).
func (c *Client) GetResource(ctx context.Context, resourceID string) (*types.Resource, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()

	client, err := c.resources(scopeFromID(resourceID))
	if err != nil {
		return nil, fmt.Errorf("create resources client: %w", err)
	}

	resp, err := client.GetByID(ctx, resourceID, c.apiVersion, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get resource %s: %w", resourceID, err)
	}

	r := genericToResource(scopeFromID(resourceID), resp.GenericResource)
	return &r, nil
}

// LookupScopeByName resolves a subscription display name, case-insensitively.
func (c *Client) LookupScopeByName(ctx context.Context, name string) (string, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()

	pager := c.subscriptions.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return "", fmt.Errorf("list subscriptions: %w", err)
		}
		for _, sub := range page.Value {
			if sub == nil || sub.DisplayName == nil {
				continue
			}
			if strings.EqualFold(*sub.DisplayName, name) {
				return deref(sub.SubscriptionID), nil
			}
		}
	}

	return "", &types.ScopeNotFoundError{Candidate: name}
}

// ListHealthEvents enumerates resource availability statuses for the
// subscription and maps them onto health events.
func (c *Client) ListHealthEvents(ctx context.Context, scopeID string) ([]types.HealthEvent, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()

	client, err := armresourcehealth.NewAvailabilityStatusesClient(scopeID, c.cred, c.options)
	if err != nil {
		return nil, fmt.Errorf("create health client: %w", err)
	}

	pager := client.NewListBySubscriptionIDPager(nil)

	var events []types.HealthEvent
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list health events: %w", err)
		}
		for _, item := range page.Value {
			if item == nil {
				continue
			}
			events = append(events, statusToEvent(item))
		}
	}
	return events, nil
}

// expandedToResource maps one list item onto the canonical Resource.
func expandedToResource(scopeID string, raw *armresources.GenericResourceExpanded) types.Resource {
	r := types.Resource{
		ID:                deref(raw.ID),
		Name:              deref(raw.Name),
		Type:              deref(raw.Type),
		Scope:             scopeID,
		Location:          deref(raw.Location),
		Kind:              deref(raw.Kind),
		ProvisioningState: deref(raw.ProvisioningState),
		Tags:              tagsFrom(raw.Tags),
		Properties:        propertiesFrom(raw.Properties),
	}
	fillDerived(&r, raw.SKU)
	return r
}

// genericToResource maps a point read onto the canonical Resource.
func genericToResource(scopeID string, raw armresources.GenericResource) types.Resource {
	r := types.Resource{
		ID:         deref(raw.ID),
		Name:       deref(raw.Name),
		Type:       deref(raw.Type),
		Scope:      scopeID,
		Location:   deref(raw.Location),
		Kind:       deref(raw.Kind),
		Tags:       tagsFrom(raw.Tags),
		Properties: propertiesFrom(raw.Properties),
	}
	fillDerived(&r, raw.SKU)
	return r
}

func fillDerived(r *types.Resource, sku *armresources.SKU) {
	r.ResourceGroup = resourceGroupFromID(r.ID)
	if sku != nil {
		r.SKU = deref(sku.Name)
	}
	if r.ProvisioningState == "" {
		r.ProvisioningState = r.Properties.StringAt("provisioningState")
	}
	r.Normalize()
}

// statusToEvent maps one availability status onto a health event. The
// status resource's own ID ends in a Microsoft.ResourceHealth suffix; the
// affected resource is its parent.
func statusToEvent(s *armresourcehealth.AvailabilityStatus) types.HealthEvent {
	event := types.HealthEvent{
		ID:         deref(s.ID),
		ResourceID: healthResourceID(deref(s.ID)),
	}
	props := s.Properties
	if props == nil {
		return event
	}
	if props.AvailabilityState != nil {
		event.Status = strings.ToLower(string(*props.AvailabilityState))
	}
	event.Summary = deref(props.Summary)
	event.Cause = deref(props.ReasonType)
	if props.OccurredTime != nil {
		event.StartedAt = *props.OccurredTime
	}
	if props.RecentlyResolved != nil && props.RecentlyResolved.ResolvedTime != nil {
		event.ResolvedAt = props.RecentlyResolved.ResolvedTime
	}
	return event
}

// healthResourceID strips the availability-status suffix from a status ID.
func healthResourceID(statusID string) string {
	idx := strings.Index(strings.ToLower(statusID), "/providers/microsoft.resourcehealth/")
	if idx < 0 {
		return statusID
	}
	return statusID[:idx]
}

func propertiesFrom(v any) types.Properties {
	if m, ok := v.(map[string]any); ok {
		return types.PropertiesFromAny(m)
	}
	return types.Properties{}
}

func tagsFrom(tags map[string]*string) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		if v != nil {
			out[k] = *v
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// resourceGroupFromID extracts the resource group segment of an ID, if any.
func resourceGroupFromID(id string) string {
	parts := strings.Split(strings.Trim(id, "/"), "/")
	for i := 0; i < len(parts)-1; i++ {
		if strings.EqualFold(parts[i], "resourceGroups") {
			return parts[i+1]
		}
	}
	return ""
}

// scopeFromID extracts the subscription segment of an ID, if any.
func scopeFromID(id string) string {
	parts := strings.Split(strings.Trim(id, "/"), "/")
	for i := 0; i < len(parts)-1; i++ {
		if strings.EqualFold(parts[i], "subscriptions") {
			return parts[i+1]
		}
	}
	return ""
}
