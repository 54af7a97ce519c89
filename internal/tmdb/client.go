package tmdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	BaseURL       = "https://api.themoviedb.org/3"
	ImageBaseURL  = "https://image.tmdb.org/t/p/w500" // w500 for posters and avatars
	ThumbBaseURL  = "https://image.tmdb.org/t/p/w92"  // w92 for search result thumbnails
	clientTimeout = 10 * time.Second
)

// ErrMissingAPIKey 在发起任何网络请求之前就返回
var ErrMissingAPIKey = errors.New("tmdb: api key not configured")

// RemoteError TMDB 返回了非 2xx 响应
type RemoteError struct {
	StatusCode int
	Status     string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("tmdb: remote error: %s", e.Status)
}

type Client struct {
	client  *resty.Client
	apiKey  string
	baseURL string
}

// NewClient 构造客户端；key 为空不报错，调用方法时才短路
func NewClient(apiKey string, proxyURL string) *Client {
	c := resty.New()
	c.SetTimeout(clientTimeout)
	if proxyURL != "" {
		c.SetProxy(proxyURL)
	}
	c.SetHeader("Content-Type", "application/json")

	return &Client{
		client:  c,
		apiKey:  apiKey,
		baseURL: BaseURL,
	}
}

// SetBaseURL 覆盖 API 地址，测试用
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

// Candidate 多类型搜索返回的单条候选
type Candidate struct {
	ID           int     `json:"id"`
	MediaType    string  `json:"media_type"` // "movie" | "tv" | "person"
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	PosterPath   string  `json:"poster_path"`
	ProfilePath  string  `json:"profile_path"`
	Popularity   float64 `json:"popularity"`
}

// DisplayName 电影用 title，剧集和人物用 name
func (r Candidate) DisplayName() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// Date 返回上映/首播日期，人物为空
func (r Candidate) Date() string {
	if r.ReleaseDate != "" {
		return r.ReleaseDate
	}
	return r.FirstAirDate
}

type searchResponse struct {
	Results []Candidate `json:"results"`
}

// TitleDetail 电影/剧集详情，带 credits 子资源 (同一个请求拿到)
type TitleDetail struct {
	ID           int         `json:"id"`
	Title        string      `json:"title"`
	Name         string      `json:"name"`
	ReleaseDate  string      `json:"release_date"`
	FirstAirDate string      `json:"first_air_date"`
	Overview     string      `json:"overview"`
	PosterPath   string      `json:"poster_path"`
	Genres       []GenreRef  `json:"genres"`
	Credits      CreditsBlob `json:"credits"`
}

func (d TitleDetail) DisplayName() string {
	if d.Title != "" {
		return d.Title
	}
	return d.Name
}

func (d TitleDetail) Date() string {
	if d.ReleaseDate != "" {
		return d.ReleaseDate
	}
	return d.FirstAirDate
}

type GenreRef struct {
	Name string `json:"name"`
}

type CreditsBlob struct {
	Cast []CastCredit `json:"cast"`
}

type CastCredit struct {
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
}

// PersonDetail 人物详情
type PersonDetail struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Biography   string `json:"biography"`
	ProfilePath string `json:"profile_path"`
}

// SearchMulti 多类型搜索，只保留 movie/tv/person，其它类型丢弃
// 结果保持 TMDB 返回顺序，缩略图换成 w92 绝对地址
func (c *Client) SearchMulti(query string) ([]Candidate, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	resp, err := c.client.R().
		SetQueryParam("query", query).
		SetQueryParam("include_adult", "false").
		SetQueryParam("api_key", c.apiKey).
		Get(c.baseURL + "/search/multi")

	if err != nil {
		return nil, fmt.Errorf("tmdb: search request failed: %w", err)
	}
	if resp.IsError() {
		return nil, &RemoteError{StatusCode: resp.StatusCode(), Status: resp.Status()}
	}

	var result searchResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("tmdb: decode search response: %w", err)
	}

	out := make([]Candidate, 0, len(result.Results))
	for _, r := range result.Results {
		switch r.MediaType {
		case "movie", "tv", "person":
			r.PosterPath = fixImage(ThumbBaseURL, r.PosterPath)
			r.ProfilePath = fixImage(ThumbBaseURL, r.ProfilePath)
			out = append(out, r)
		}
	}
	return out, nil
}

// GetMovieDetails 拉电影详情，append_to_response=credits 一次请求带上 cast
func (c *Client) GetMovieDetails(id int) (*TitleDetail, error) {
	return c.getTitleDetails("movie", id)
}

// GetTVDetails 拉剧集详情，同样带 credits
func (c *Client) GetTVDetails(id int) (*TitleDetail, error) {
	return c.getTitleDetails("tv", id)
}

func (c *Client) getTitleDetails(endpoint string, id int) (*TitleDetail, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	resp, err := c.client.R().
		SetQueryParam("api_key", c.apiKey).
		SetQueryParam("append_to_response", "credits").
		Get(fmt.Sprintf("%s/%s/%d", c.baseURL, endpoint, id))

	if err != nil {
		return nil, fmt.Errorf("tmdb: detail request failed: %w", err)
	}
	if resp.IsError() {
		return nil, &RemoteError{StatusCode: resp.StatusCode(), Status: resp.Status()}
	}

	var detail TitleDetail
	if err := json.Unmarshal(resp.Body(), &detail); err != nil {
		return nil, fmt.Errorf("tmdb: decode detail response: %w", err)
	}

	detail.PosterPath = fixImage(ImageBaseURL, detail.PosterPath)
	for i := range detail.Credits.Cast {
		detail.Credits.Cast[i].ProfilePath = fixImage(ImageBaseURL, detail.Credits.Cast[i].ProfilePath)
	}
	return &detail, nil
}

// GetPersonDetails 拉人物详情
func (c *Client) GetPersonDetails(id int) (*PersonDetail, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	resp, err := c.client.R().
		SetQueryParam("api_key", c.apiKey).
		Get(fmt.Sprintf("%s/person/%d", c.baseURL, id))

	if err != nil {
		return nil, fmt.Errorf("tmdb: person request failed: %w", err)
	}
	if resp.IsError() {
		return nil, &RemoteError{StatusCode: resp.StatusCode(), Status: resp.Status()}
	}

	var person PersonDetail
	if err := json.Unmarshal(resp.Body(), &person); err != nil {
		return nil, fmt.Errorf("tmdb: decode person response: %w", err)
	}

	person.ProfilePath = fixImage(ImageBaseURL, person.ProfilePath)
	return &person, nil
}

// ReleaseYear 取日期串第一个 "-" 前面的年份段，解析失败返回 0
func ReleaseYear(date string) int {
	seg, _, _ := strings.Cut(date, "-")
	year, err := strconv.Atoi(seg)
	if err != nil || year < 0 {
		return 0
	}
	return year
}

func fixImage(base, path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http") {
		return path
	}
	return base + path
}
