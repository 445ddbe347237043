package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/krishisahayak/krishi/internal/core/domain"
)

type gqlSessionKey struct{}

func sessionFromGraphQL(p graphql.ResolveParams) (*domain.AuthSession, error) {
	sess, _ := p.Context.Value(gqlSessionKey{}).(*domain.AuthSession)
	if sess == nil {
		return nil, domain.ErrSessionUnknown
	}
	return sess, nil
}

func timeField(get func(src any) time.Time) *graphql.Field {
	return &graphql.Field{
		Type: graphql.String,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			t := get(p.Source)
			if t.IsZero() {
				return nil, nil
			}
			return t.Format(time.RFC3339), nil
		},
	}
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"longitude": &graphql.Field{Type: graphql.Float},
			"latitude":  &graphql.Field{Type: graphql.Float},
		},
	})

	drawnAreaType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DrawnArea",
		Fields: graphql.Fields{
			"area_square_meters":  &graphql.Field{Type: graphql.Float},
			"perimeter_meters":    &graphql.Field{Type: graphql.Float},
			"centroid":            &graphql.Field{Type: geoPointType},
			"country":             &graphql.Field{Type: graphql.String},
			"country_status":      &graphql.Field{Type: graphql.String},
			"polygon_coordinates": &graphql.Field{Type: graphql.NewList(geoPointType)},
			"sequence":            &graphql.Field{Type: graphql.Int},
			"captured_at": timeField(func(src any) time.Time {
				return src.(*domain.DrawnArea).CapturedAt
			}),
		},
	})

	mapViewType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MapView",
		Fields: graphql.Fields{
			"center": &graphql.Field{Type: geoPointType},
			"zoom":   &graphql.Field{Type: graphql.Float},
			"style":  &graphql.Field{Type: graphql.String},
		},
	})

	captureType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Capture",
		Fields: graphql.Fields{
			"id":     &graphql.Field{Type: graphql.String},
			"latest": &graphql.Field{Type: drawnAreaType},
			"opened_at": timeField(func(src any) time.Time {
				return src.(*domain.Capture).OpenedAt
			}),
		},
	})

	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"username": &graphql.Field{Type: graphql.String},
			"name":     &graphql.Field{Type: graphql.String},
			"email":    &graphql.Field{Type: graphql.String},
			"phone":    &graphql.Field{Type: graphql.String},
			"village":  &graphql.Field{Type: graphql.String},
			"state":    &graphql.Field{Type: graphql.String},
			"cropType": &graphql.Field{Type: graphql.String},
		},
	})

	recommendationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Recommendation",
		Fields: graphql.Fields{
			"product":       &graphql.Field{Type: graphql.String},
			"quantity":      &graphql.Field{Type: graphql.Float},
			"estimatedCost": &graphql.Field{Type: graphql.Float},
			"reason":        &graphql.Field{Type: graphql.String},
			"priority": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.Recommendation).PriorityOrDefault(), nil
				},
			},
		},
	})

	cropType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CropRecommendation",
		Fields: graphql.Fields{
			"title": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.CropRecommendation).Title(), nil
				},
			},
			"score":    &graphql.Field{Type: graphql.Float},
			"reasons":  &graphql.Field{Type: graphql.NewList(graphql.String)},
			"benefits": &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	orderType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Order",
		Fields: graphql.Fields{
			"order_id":     &graphql.Field{Type: graphql.String},
			"status":       &graphql.Field{Type: graphql.String},
			"total_amount": &graphql.Field{Type: graphql.Float},
			"created_at":   &graphql.Field{Type: graphql.String},
			"notes":        &graphql.Field{Type: graphql.String},
		},
	})

	dashboardType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Dashboard",
		Fields: graphql.Fields{
			"insights": &graphql.Field{
				Type: graphql.NewList(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.Dashboard).Analysis.Insights(), nil
				},
			},
			"crops": &graphql.Field{
				Type: graphql.NewList(cropType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					d := p.Source.(*domain.Dashboard)
					if d.Analysis == nil {
						return []domain.CropRecommendation{}, nil
					}
					return d.Analysis.CropRecommendations, nil
				},
			},
			"recommendations": &graphql.Field{Type: graphql.NewList(recommendationType)},
			"orders":          &graphql.Field{Type: graphql.NewList(orderType)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"mapView": &graphql.Field{
				Type:        mapViewType,
				Description: "Map canvas used for drawing land parcels",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Captures.View()
				},
			},
			"capture": &graphql.Field{
				Type:        captureType,
				Description: "Get a capture session by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Captures.Get(id)
				},
			},
			"me": &graphql.Field{
				Type:        userType,
				Description: "The signed-in farmer",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sess, err := sessionFromGraphQL(p)
					if err != nil {
						return nil, err
					}
					return sess.User, nil
				},
			},
			"dashboard": &graphql.Field{
				Type:        dashboardType,
				Description: "Land analysis, recommendations and recent orders",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sess, err := sessionFromGraphQL(p)
					if err != nil {
						return nil, err
					}
					return deps.Dashboard.Load(p.Context, sess)
				},
			},
			"orderHistory": &graphql.Field{
				Type:        graphql.NewList(orderType),
				Description: "The farmer's past orders",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sess, err := sessionFromGraphQL(p)
					if err != nil {
						return nil, err
					}
					return deps.Orders.History(p.Context, sess)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint. A bearer token is optional;
// signed-in fields fail without one.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		ctx := c.UserContext()
		if token := bearerToken(c); token != "" {
			if sess, err := deps.Auth.Resolve(ctx, token); err == nil {
				ctx = context.WithValue(ctx, gqlSessionKey{}, sess)
				c.Set(fiber.HeaderCacheControl, "private, no-store")
			}
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        ctx,
		})

		return c.JSON(result)
	}
}
