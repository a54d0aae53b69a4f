package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/soulpin/soulpin-backend/internal/domain"
)

// Client wraps the Gemini generative model for the two text surfaces the
// engine consumes: match feedback and conversation starters. Errors bubble
// up; the lifecycle use case substitutes its fixed fallback strings.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewClient(apiKey, modelName string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is not set")
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.7)

	return &Client{client: client, model: model}, nil
}

func (c *Client) Close() {
	c.client.Close()
}

func (c *Client) GenerateMatchFeedback(ctx context.Context, user, partner *domain.UserProfile, messageCount int, duration time.Duration) (string, error) {
	prompt := fmt.Sprintf(`You are a relationship expert providing thoughtful feedback on dating matches. Be empathetic, constructive, and focus on personal growth. Keep responses under 150 words.

A dating match ended between two users. Here's the context:

User 1: %s, age %d
- Personality: %s
- Communication style: %s
- Values: %s
- Interests: %s

User 2: %s, age %d
- Personality: %s
- Communication style: %s
- Values: %s
- Interests: %s

Match details:
- Messages exchanged: %d
- Match duration: %d hours

Provide personalized feedback on why this match might not have worked and insights for future connections.`,
		user.Name, user.Age, user.PersonalityType, user.CommunicationStyle,
		strings.Join(user.Values, ", "), strings.Join(user.Interests, ", "),
		partner.Name, partner.Age, partner.PersonalityType, partner.CommunicationStyle,
		strings.Join(partner.Values, ", "), strings.Join(partner.Interests, ", "),
		messageCount, int(duration.Hours()),
	)

	return c.generate(ctx, prompt)
}

func (c *Client) GenerateConversationStarter(ctx context.Context, user, partner *domain.UserProfile) (string, error) {
	prompt := fmt.Sprintf(`You are a dating coach helping users start meaningful conversations. Create thoughtful, personalized conversation starters based on shared interests and compatibility. Keep it natural and engaging, under 100 words.

Generate a conversation starter for these two matched users:

User 1: %s
- Interests: %s
- Values: %s

User 2: %s
- Interests: %s
- Values: %s

Create a personalized conversation starter that references their shared interests or values.`,
		user.Name, strings.Join(user.Interests, ", "), strings.Join(user.Values, ", "),
		partner.Name, strings.Join(partner.Interests, ", "), strings.Join(partner.Values, ", "),
	)

	return c.generate(ctx, prompt)
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no content generated")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
