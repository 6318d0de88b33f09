package shared

import (
	"strings"

	"github.com/Pallinder/go-randomdata"
	"github.com/satori/go.uuid"
)

type StringGenerator struct {
}

// GenerateChildName yields a plausible given name, used for placeholder
// records and test fixtures.
func (n *StringGenerator) GenerateChildName() string {
	return strings.ToLower(randomdata.FirstName(randomdata.RandomGender))
}

func (n *StringGenerator) GenerateUuid() string {
	return uuid.NewV4().String()
}
