package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ekaya-inc/ekaya-studio/pkg/apperrors"
)

// thinkTagPattern matches <think>...</think> tags that may appear at the start of model responses.
var thinkTagPattern = regexp.MustCompile(`(?s)^[\s]*<think>.*?</think>[\s]*`)

// contractValidator is safe for concurrent use and caches struct metadata.
var contractValidator = validator.New(validator.WithRequiredStructEnabled())

// ExtractJSON extracts JSON content from a model response that may contain
// <think> tags, markdown code blocks, or surrounding prose.
func ExtractJSON(response string) (string, error) {
	cleaned := thinkTagPattern.ReplaceAllString(response, "")

	objStart := strings.IndexByte(cleaned, '{')
	arrStart := strings.IndexByte(cleaned, '[')

	if objStart >= 0 && (arrStart < 0 || objStart < arrStart) {
		if jsonStr, ok := extractBalancedJSON(cleaned, '{', '}'); ok {
			if json.Valid([]byte(jsonStr)) {
				return jsonStr, nil
			}
		}
	}

	if arrStart >= 0 {
		if jsonStr, ok := extractBalancedJSON(cleaned, '[', ']'); ok {
			if json.Valid([]byte(jsonStr)) {
				return jsonStr, nil
			}
		}
	}

	trimmed := strings.TrimSpace(cleaned)
	if json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}

	return "", fmt.Errorf("no valid JSON found in response")
}

// extractBalancedJSON finds the first balanced JSON structure starting with openChar.
// Brackets inside string literals are ignored.
func extractBalancedJSON(s string, openChar, closeChar byte) (string, bool) {
	start := strings.IndexByte(s, openChar)
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}

		if c == '\\' && inString {
			escaped = true
			continue
		}

		if c == '"' {
			inString = !inString
			continue
		}

		if inString {
			continue
		}

		if c == openChar {
			depth++
		} else if c == closeChar {
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}

// ParseJSONResponse extracts JSON from a response and unmarshals it into the target.
func ParseJSONResponse[T any](response string) (T, error) {
	var result T

	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return result, err
	}

	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, fmt.Errorf("unmarshal JSON: %w", err)
	}

	return result, nil
}

// ContractError is a model response that did not match its expected shape.
// It matches apperrors.ErrContractParse.
type ContractError struct {
	Contract string
	Cause    error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s contract: %v", e.Contract, e.Cause)
}

func (e *ContractError) Unwrap() error {
	return e.Cause
}

func (e *ContractError) Is(target error) bool {
	return target == apperrors.ErrContractParse
}

// ValidateContract runs the validate tags of a contract struct.
func ValidateContract(v any) error {
	return contractValidator.Struct(v)
}

// ParseOrDefault parses a response into the contract T and validates it.
// On any failure it returns def together with a *ContractError describing why;
// callers that tolerate malformed output use the returned value either way.
// T must be a struct type.
func ParseOrDefault[T any](contract string, response string, def T) (T, error) {
	result, err := ParseJSONResponse[T](response)
	if err != nil {
		return def, &ContractError{Contract: contract, Cause: err}
	}
	if err := ValidateContract(&result); err != nil {
		return def, &ContractError{Contract: contract, Cause: err}
	}
	return result, nil
}
