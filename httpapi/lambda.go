package httpapi

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
)

// ProxyHandler adapts an http.Handler to an API Gateway REST proxy
// integration. It is used as the Lambda handler.
type ProxyHandler func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// NewProxyHandler returns a ProxyHandler serving requests with h.
func NewProxyHandler(h http.Handler) ProxyHandler {
	return httpadapter.New(h).ProxyWithContext
}
