package domain

// IntegrationMetadata is the opaque credential payload supplied by the
// caller. Only the exchange API key is read from it.
type IntegrationMetadata map[string]any

// APIKey validates the metadata and extracts the exchange API key.
func (m IntegrationMetadata) APIKey() (string, error) {
	v, ok := m["apiKey"]
	if !ok {
		return "", &ValidationError{Reason: "integration metadata has no apiKey"}
	}

	key, ok := v.(string)
	if !ok || key == "" {
		return "", &ValidationError{Reason: "integration metadata apiKey is empty"}
	}

	return key, nil
}
