package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/creatorlane/discount-agent/internal/api/dto"
)

// agentClient wraps the HTTP calls the chat loop makes. Admin calls lazily
// exchange the api key for a bearer token on first use.
type agentClient struct {
	baseURL    string
	adminKey   string
	adminToken string
	http       *http.Client
}

func newAgentClient(baseURL, adminKey string) *agentClient {
	return &agentClient{
		baseURL:  baseURL,
		adminKey: adminKey,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *agentClient) sendMessage(platform, user, text string, explain bool) {
	body, _ := json.Marshal(dto.SimulateRequest{
		Platform: platform,
		UserID:   user,
		Text:     text,
		Explain:  explain,
	})

	resp, err := c.http.Post(c.baseURL+"/simulate", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		printRawError(resp)
		return
	}

	var result dto.SimulateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		fmt.Printf("error: decode response: %v\n", err)
		return
	}

	fmt.Printf("agent: %s\n", result.Reply)
	fmt.Printf("  [method=%s confidence=%.2f status=%s]\n",
		result.Method, result.Confidence, result.Row.ConversationStatus)
	if result.Row.DiscountCodeSent != nil {
		fmt.Printf("  [code=%s]\n", *result.Row.DiscountCodeSent)
	}
	if result.Row.FollowerCount != nil && result.Row.IsPotentialInfluencer != nil {
		fmt.Printf("  [followers=%d influencer=%t]\n",
			*result.Row.FollowerCount, *result.Row.IsPotentialInfluencer)
	}
	for _, step := range result.Trace {
		fmt.Printf("  trace: %s\n", step)
	}
}

func (c *agentClient) health() {
	resp, err := c.http.Get(c.baseURL + "/health/ready")
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	defer resp.Body.Close()
	printIndentedBody(resp)
}

func (c *agentClient) analytics() {
	resp, err := c.http.Get(c.baseURL + "/analytics/creators")
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	defer resp.Body.Close()
	printIndentedBody(resp)
}

func (c *agentClient) adminPost(path string) {
	token, err := c.login()
	if err != nil {
		fmt.Printf("error: admin login: %v\n", err)
		return
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	defer resp.Body.Close()
	printIndentedBody(resp)
}

func (c *agentClient) login() (string, error) {
	if c.adminToken != "" {
		return c.adminToken, nil
	}

	body, _ := json.Marshal(dto.AdminLoginRequest{APIKey: c.adminKey})
	resp, err := c.http.Post(c.baseURL+"/auth/admin/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login returned status %d", resp.StatusCode)
	}

	var parsed struct {
		Data dto.AdminLoginResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	c.adminToken = parsed.Data.Token
	return c.adminToken, nil
}

func printIndentedBody(resp *http.Response) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Printf("error: read response: %v\n", err)
		return
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		fmt.Println(string(raw))
		return
	}
	fmt.Println(pretty.String())
}

func printRawError(resp *http.Response) {
	raw, _ := io.ReadAll(resp.Body)
	fmt.Printf("error: status %d: %s\n", resp.StatusCode, string(raw))
}
