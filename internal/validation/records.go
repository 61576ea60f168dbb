package validation

import "github.com/Drakz0n/CommFlow/internal/model"

// Client validates every field of a client before it is saved.
func Client(c *model.Client) error {
	return first(
		ID(c.ID),
		Name(c.Name, "Client name"),
		Email(c.Email),
		Contact(c.Contact),
		Timestamps(c.CreatedAt, c.UpdatedAt),
	)
}

// Commission validates every field of a commission before it is saved.
// Empty image entries are expected to have been dropped by the caller.
func Commission(c *model.Commission) error {
	if err := first(
		ID(c.ID),
		ID(c.ClientID),
		Name(c.ClientName, "Client name"),
		Name(c.Title, "Commission title"),
		Description(c.Description),
		PriceCents(c.PriceCents),
		PaymentStatus(c.PaymentStatus),
		Status(c.Status),
		Timestamps(c.CreatedAt, c.UpdatedAt),
	); err != nil {
		return err
	}
	for _, img := range c.Images {
		if err := ImagePath(img); err != nil {
			return err
		}
	}
	return nil
}

func first(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
