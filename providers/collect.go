package providers

import (
	"strings"

	"github.com/dev-tahir/xcoder-cli/providers/models"
)

// CollectResponse drains a completion stream into a single string. The first
// chunk error aborts the collection.
func CollectResponse(responseChan <-chan models.StreamResponse) (string, error) {
	var sb strings.Builder
	for resp := range responseChan {
		if resp.Err != nil {
			return "", resp.Err
		}
		sb.WriteString(resp.Content)
	}
	return sb.String(), nil
}
