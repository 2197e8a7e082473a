package ai

import (
	"fmt"
	"strings"
)

// maxTweetLength is the Twitter character limit.
const maxTweetLength = 280

// maxReplyLength keeps replies short enough to read as genuine, not promo.
const maxReplyLength = 200

// campaignContext describes the product for the model.
const campaignContext = `Levva is an AI DeFi platform that makes yield farming effortless. Key points:
- Smart Vaults automate DeFi investing
- AI handles allocations, rebalancing, and yield optimization
- Integrated with 20+ protocols: Pendle, AAVE, Lido, Morpho, Curve, Uniswap, etc.
- 5-25% organic APY
- Non-custodial & fully audited
- Zero complexity, just automated earnings

Brand messaging: "Tell AI: I want safe yield"
Tone: Educational, authentic, showing how Levva helps users earn smarter`

const tweetSystemPrompt = `You are a helpful DeFi educator who genuinely wants to help people understand AI-powered yield farming. You write concise, engaging tweets that never sound like ads.`

// tweetUserPrompt builds the generation prompt for a single campaign tweet.
func tweetUserPrompt(utmLink string) string {
	return fmt.Sprintf(`Create an engaging Twitter post about the Levva AI DeFi platform.

CONTEXT: %s

REQUIREMENTS:
- Include the link: %s
- Maximum 280 characters
- Educational and authentic tone
- Focus on benefits: ease of use, automated yield, security
- Include relevant hashtags like #DeFi #AI #YieldFarming
- Don't sound like an ad - be helpful and genuine

Respond with the tweet text only, no numbering or commentary.`, campaignContext, utmLink)
}

// replyUserPrompt builds the generation prompt for a conversational reply.
func replyUserPrompt(keyword string) string {
	return fmt.Sprintf(`Create a genuine, helpful reply to a tweet about %s.

CONTEXT: %s

Naturally mention how Levva's AI vaults help with this, but don't be pushy.
Keep it under %d characters. Respond with the reply text only.`, keyword, campaignContext, maxReplyLength)
}

// threadStarterPrompt builds the generation prompt for an educational
// thread's opening tweet.
func threadStarterPrompt() string {
	return fmt.Sprintf(`Create an engaging first tweet for an educational thread about Levva.

CONTEXT: %s

Make it intriguing so people want to read the thread. Maximum %d characters.
Respond with the tweet text only.`, campaignContext, maxTweetLength)
}

// fallbackThreadStarter opens the thread when generation fails.
const fallbackThreadStarter = "🚀 Why AI DeFi is the future of yield farming:\n\nA quick thread about @levvafi 👇"

// threadPoint is the educational follow-up posted under the starter.
func threadPoint(utmLink string) string {
	return "1/ Smart Vaults automate everything:\n• Multi-protocol allocations\n• AI rebalancing\n• Yield optimization\n\nAll while you focus on life! " + utmLink
}

// firstVariation extracts the first usable tweet from a model response that
// may contain several numbered variations or commentary lines.
func firstVariation(response string) string {
	paragraphs := strings.Split(strings.TrimSpace(response), "\n\n")
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		// Strip a leading "1." / "2." style marker
		for _, prefix := range []string{"1.", "2.", "3.", "-"} {
			if strings.HasPrefix(p, prefix) {
				p = strings.TrimSpace(strings.TrimPrefix(p, prefix))
			}
		}
		return p
	}
	return ""
}

// ensureLink appends the UTM link when the model left it out.
func ensureLink(tweet, utmLink string) string {
	if strings.Contains(tweet, utmLink) {
		return tweet
	}
	return tweet + "\n\n" + utmLink
}

// clampTweet trims an over-long tweet while keeping the UTM link intact.
func clampTweet(tweet, utmLink string) string {
	if len(tweet) <= maxTweetLength {
		return tweet
	}

	// Budget for the trailing link plus separator.
	budget := maxTweetLength - len(utmLink) - 2
	if budget < 0 {
		return tweet[:maxTweetLength]
	}

	body := strings.TrimSpace(strings.Replace(tweet, utmLink, "", 1))
	if len(body) > budget {
		body = strings.TrimSpace(body[:budget])
	}
	return body + "\n\n" + utmLink
}
