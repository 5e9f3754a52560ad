package queue

import (
	"encoding/json"
	"fmt"
)

func validateNonEmpty(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s must not be empty", ErrInvalidArgument, name)
	}
	return nil
}

func validatePage(offset, limit int) error {
	if offset < 0 {
		return fmt.Errorf("%w: offset must not be negative, got %d", ErrInvalidArgument, offset)
	}
	if limit <= 0 {
		return fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidArgument, limit)
	}
	return nil
}

func validateJSON(name, value string) error {
	if !json.Valid([]byte(value)) {
		return fmt.Errorf("%w: %s must be valid JSON", ErrInvalidArgument, name)
	}
	return nil
}

func validatePut(queueName string, req PutRequest) error {
	if err := validateNonEmpty("queue", queueName); err != nil {
		return err
	}
	if err := validateNonEmpty("class name", req.ClassName); err != nil {
		return err
	}
	if req.Data != "" {
		if err := validateJSON("data", req.Data); err != nil {
			return err
		}
	}
	if req.Delay < 0 {
		return fmt.Errorf("%w: delay must not be negative", ErrInvalidArgument)
	}
	if req.Retries < 0 {
		return fmt.Errorf("%w: retries must not be negative", ErrInvalidArgument)
	}
	for _, tag := range req.Tags {
		if err := validateNonEmpty("tag", tag); err != nil {
			return err
		}
	}
	for _, jid := range req.Depends {
		if err := validateNonEmpty("dependency jid", jid); err != nil {
			return err
		}
	}
	return nil
}
